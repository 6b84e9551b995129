// path: ports/errors.go
package ports

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrConditionFailed = errors.New("update precondition failed")
	ErrUnavailable     = errors.New("dependency unavailable")
)
