// path: auth/middleware.go
package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id ports.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// ContextIdentity reads the identity the middleware stored on the request context.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (ports.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(ports.Identity)
	if !ok || id.ID == "" {
		return ports.Identity{}, false
	}
	return id, true
}

// Middleware attaches the bearer token's identity to the user context.
// Requests without a valid token pass through anonymous; handlers that need
// a user get ErrNotSignedIn from the service layer.
func Middleware(v *TokenVerifier, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v == nil {
			return c.Next()
		}
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Next()
		}
		id, err := v.Verify(raw)
		if err != nil {
			logger.DebugContext(c.UserContext(), "bearer token rejected", "error", err)
			return c.Next()
		}
		c.SetUserContext(WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

var _ ports.IdentityProvider = ContextIdentity{}
