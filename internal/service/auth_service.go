package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/config"
	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/events"
	"github.com/secureleak/report-service/internal/repository"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// dummyVerifyPassword keeps login timing comparable when the email does
// not exist: verification runs against this throwaway hash instead of
// short-circuiting.
const dummyVerifyPassword = "login-timing-equalizer"

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	minPwLen   int

	dummyHash string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	hasher := auth.NewHasher(cfg)
	dummyHash, err := hasher.Hash(dummyVerifyPassword)
	if err != nil {
		dummyHash = ""
	}

	minLen := cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = 10
	}

	return &AuthService{
		users:      users,
		hasher:     hasher,
		dispatcher: dispatcher,
		logger:     logger,
		minPwLen:   minLen,
		dummyHash:  dummyHash,
	}
}

// RegisterInput carries the registration form fields. Any role supplied
// by the client is dropped before this struct is built; accounts always
// start as plain users.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register creates a new account. Checks run in a fixed order and the
// first failure wins: presence, email syntax, password length, password
// denylist, email uniqueness. Uniqueness failures surface as a distinct
// conflict so the UI can say "already registered".
func (s *AuthService) Register(ctx context.Context, input RegisterInput, clientIP string) (*domain.User, error) {
	email := auth.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	if email == "" || username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email, username and password are required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"field": "email"})
	}
	if len(input.Password) < s.minPwLen {
		return nil, apperrors.NewValidationError("password too short", map[string]any{
			"field":      "password",
			"min_length": s.minPwLen,
		})
	}
	if auth.IsCommonPassword(input.Password) {
		return nil, apperrors.NewValidationError("password is too common", map[string]any{"field": "password"})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-insert lookup races with concurrent registrations;
		// the unique index on users.email is the authority.
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
		}
		return nil, apperrors.MapError(err)
	}

	s.emit(ctx, events.EventUserRegistered, &user.ID, email, clientIP)
	return user, nil
}

// isUniqueViolation reports whether err is Postgres SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Login authenticates by email and password. A missing account and a
// wrong password produce the same generic failure; neither the message
// nor an early return distinguishes them.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*domain.User, error) {
	email = auth.NormalizeEmail(email)
	if email == "" || password == "" {
		s.emit(ctx, events.EventLoginFailure, nil, email, clientIP)
		return nil, apperrors.NewInvalidCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		s.hasher.Verify(s.dummyHash, password)
		s.emit(ctx, events.EventLoginFailure, nil, email, clientIP)
		return nil, apperrors.NewInvalidCredentials()
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.emit(ctx, events.EventLoginFailure, nil, email, clientIP)
		return nil, apperrors.NewInvalidCredentials()
	}

	s.maybeRehash(ctx, user, password)

	s.emit(ctx, events.EventLoginSuccess, &user.ID, email, clientIP)
	return user, nil
}

// Logout records the logout event. Session teardown itself happens at
// the transport layer; clearing an already absent session is a no-op.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity, clientIP string) {
	if identity == nil {
		return
	}
	s.emit(ctx, events.EventLogout, &identity.UserID, "", clientIP)
}

// DeleteUser removes an account. Admin-only; the route guard has already
// confirmed the caller's role against the store.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.Identity, userID int64, clientIP string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	var actorID *int64
	if actor != nil {
		actorID = &actor.UserID
	}
	s.emit(ctx, events.EventUserDeleted, actorID, formatID(userID), clientIP)
	return nil
}

// maybeRehash transparently upgrades a stale hash after a successful
// verification. Failures are logged and swallowed: login has already
// succeeded and must not be undone by housekeeping.
func (s *AuthService) maybeRehash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	fresh, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{"password_hash": fresh}); err != nil {
		s.logger.Warn("password rehash persist failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = fresh
}

func (s *AuthService) emit(ctx context.Context, eventType events.EventType, userID *int64, target, clientIP string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		UserID:    userID,
		Target:    target,
		ClientIP:  clientIP,
		Timestamp: time.Now(),
	})
}
