package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/secureleak/report-service/internal/config"
	"github.com/secureleak/report-service/internal/domain"
)

// SessionManager carries the authenticated identity in a signed cookie.
// The token holds only user id and role; there is no server-side session
// table, so establish and clear operate purely by token replacement.
type SessionManager struct {
	secret     []byte
	lifetime   time.Duration
	cookieName string
	secure     bool
}

// NewSessionManager builds a session manager from configuration.
func NewSessionManager(cfg config.SessionConfig) *SessionManager {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	return &SessionManager{
		secret:     []byte(cfg.Secret),
		lifetime:   cfg.Lifetime(),
		cookieName: name,
		secure:     cfg.CookieSecure,
	}
}

// sessionClaims is the fixed-shape token payload.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Establish replaces any existing session cookie with a freshly signed
// token for the given identity. A pre-authentication cookie is never
// reused, which defeats session fixation.
func (m *SessionManager) Establish(c *fiber.Ctx, userID int64, role domain.Role) error {
	m.expireCookie(c)

	now := time.Now()
	claims := &sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Expires:  now.Add(m.lifetime),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

// Clear wipes the session cookie. Clearing an already absent session is a
// no-op.
func (m *SessionManager) Clear(c *fiber.Ctx) {
	m.expireCookie(c)
}

// CurrentIdentity returns the identity carried by the request's session
// cookie, or nil when the cookie is absent, expired, or tampered with.
func (m *SessionManager) CurrentIdentity(c *fiber.Ctx) *domain.Identity {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return nil
	}
	identity, err := m.parse(raw)
	if err != nil {
		return nil
	}
	return identity
}

func (m *SessionManager) parse(raw string) (*domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, errors.New("invalid session subject")
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, errors.New("invalid session role")
	}
	return &domain.Identity{UserID: userID, Role: role}, nil
}

func (m *SessionManager) expireCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
