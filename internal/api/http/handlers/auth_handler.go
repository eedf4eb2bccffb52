package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/api/dto"
	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/service"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// AuthHandler exposes registration, login and logout endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionManager
	throttle *auth.Throttle
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionManager, throttle *auth.Throttle) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, throttle: throttle}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if !h.throttle.Allow(c.UserContext(), c.IP()) {
		return apperrors.NewTooManyRequests("too many attempts, try again later")
	}

	// req.Role is deliberately dropped: accounts always start as users.
	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}, c.IP())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.UserResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     string(user.Role),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if !h.throttle.Allow(c.UserContext(), c.IP()) {
		return apperrors.NewTooManyRequests("too many attempts, try again later")
	}

	user, err := h.auth.Login(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}

	if err := h.sessions.Establish(c, user.ID, user.Role); err != nil {
		return apperrors.MapError(err)
	}
	h.throttle.Reset(c.UserContext(), c.IP())

	return c.JSON(fiber.Map{
		"data": dto.UserResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     string(user.Role),
		},
	})
}

// Logout handles POST /auth/logout. Logging out twice is harmless: the
// second call clears an already absent session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	h.sessions.Clear(c)
	h.auth.Logout(c.UserContext(), identity, c.IP())
	return c.JSON(fiber.Map{"data": fiber.Map{"signed_out": true}})
}

// Me handles GET /auth/me and reports the current session identity.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("sign in required")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user_id": identity.UserID,
			"role":    string(identity.Role),
		},
	})
}
