// path: models/user.go
package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type UserAccount struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Points    int64     `bson:"points" json:"points"`
	Reported  int64     `bson:"reported" json:"reported"`
	Cleaned   int64     `bson:"cleaned" json:"cleaned"`
	Posts     int64     `bson:"posts" json:"posts"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// StatsDelta is applied with atomic increments; all fields are non-negative.
type StatsDelta struct {
	Points   int64
	Reported int64
	Cleaned  int64
	Posts    int64
}

func (d StatsDelta) Valid() bool {
	return d.Points >= 0 && d.Reported >= 0 && d.Cleaned >= 0 && d.Posts >= 0
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-20 characters: letters, digits or underscore")
	}
	return nil
}

func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n == 0 || n > 60 {
		return errors.New("name must be 1-60 characters")
	}
	return nil
}
