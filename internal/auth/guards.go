package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/repository"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// Guards exposes request-level authorization predicates. Role checks use
// the cached session role first; the admin role is additionally confirmed
// against the credential store on every request, so a stale or forged
// role claim never grants access.
type Guards struct {
	users repository.UserRepository
}

// NewGuards constructs guards backed by the given credential store.
func NewGuards(users repository.UserRepository) *Guards {
	return &Guards{users: users}
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("sign in required")
		}
		return c.Next()
	}
}

// RequireRole enforces the given role. A role mismatch answers "not
// found" rather than "forbidden" so the existence of role-gated routes is
// not observable to other roles.
func (g *Guards) RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("sign in required")
		}
		if identity.Role != role {
			return apperrors.NewNotFound("resource", nil)
		}
		if role == domain.RoleAdmin && !g.confirmAdmin(c.UserContext(), identity.UserID) {
			return apperrors.NewNotFound("resource", nil)
		}
		return c.Next()
	}
}

// OwnsOrIsAdmin reports whether the identity owns the resource or holds a
// database-confirmed admin role. It returns false on a missing identity
// and never produces an error; the caller chooses the response.
func (g *Guards) OwnsOrIsAdmin(ctx context.Context, identity *domain.Identity, ownerID int64) bool {
	if identity == nil {
		return false
	}
	if identity.UserID == ownerID {
		return true
	}
	if identity.Role != domain.RoleAdmin {
		return false
	}
	return g.confirmAdmin(ctx, identity.UserID)
}

func (g *Guards) confirmAdmin(ctx context.Context, userID int64) bool {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin
}
