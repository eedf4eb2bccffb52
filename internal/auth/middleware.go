package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/domain"
)

const identityKey = "session_identity"

// Middleware reads the session cookie on every request and stores the
// resulting identity in request locals. An absent or invalid cookie means
// an anonymous request, never an error; the guards decide what anonymous
// callers may do.
type Middleware struct {
	sessions *SessionManager
}

// NewMiddleware constructs the session-reading middleware.
func NewMiddleware(sessions *SessionManager) *Middleware {
	return &Middleware{sessions: sessions}
}

// Handle extracts the caller identity for downstream guards and handlers.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if identity := m.sessions.CurrentIdentity(c); identity != nil {
		c.Locals(identityKey, identity)
	}
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok && identity != nil
}
