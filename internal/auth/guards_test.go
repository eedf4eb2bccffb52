package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/secureleak/report-service/internal/domain"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// mockUserRepo satisfies repository.UserRepository with overridable
// behavior per test.
type mockUserRepo struct {
	createFn       func(ctx context.Context, user *domain.User) error
	getByIDFn      func(ctx context.Context, id int64) (*domain.User, error)
	getByEmailFn   func(ctx context.Context, email string) (*domain.User, error)
	updateFieldsFn func(ctx context.Context, id int64, fields map[string]any) error
	deleteFn       func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, user)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.getByEmailFn(ctx, email)
}

func (m *mockUserRepo) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if m.updateFieldsFn == nil {
		return nil
	}
	return m.updateFieldsFn(ctx, id, fields)
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

// guardedApp mounts a role-gated route and injects the given identity
// before the guard runs, standing in for the session middleware.
func guardedApp(guards *Guards, identity *domain.Identity) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		if identity != nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	})
	app.Get("/admin", guards.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAnonymous(t *testing.T) {
	guards := NewGuards(&mockUserRepo{})
	app := guardedApp(guards, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous admin access = %d, want 401", resp.StatusCode)
	}
}

func TestRequireRoleMismatchAnswersNotFound(t *testing.T) {
	guards := NewGuards(&mockUserRepo{})
	app := guardedApp(guards, &domain.Identity{UserID: 7, Role: domain.RoleUser})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("regular-user admin access = %d, want 404", resp.StatusCode)
	}
}

func TestRequireRoleConfirmsAdminAgainstStore(t *testing.T) {
	// The cookie claims admin but the stored account is a plain user, as
	// after a demotion or a forged claim. The store wins.
	guards := NewGuards(&mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleUser}, nil
		},
	})
	app := guardedApp(guards, &domain.Identity{UserID: 7, Role: domain.RoleAdmin})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("demoted admin access = %d, want 404", resp.StatusCode)
	}
}

func TestRequireRoleAdmitsConfirmedAdmin(t *testing.T) {
	guards := NewGuards(&mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleAdmin}, nil
		},
	})
	app := guardedApp(guards, &domain.Identity{UserID: 7, Role: domain.RoleAdmin})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed admin access = %d, want 200", resp.StatusCode)
	}
}

func TestOwnsOrIsAdmin(t *testing.T) {
	adminStore := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			if id == 1 {
				return &domain.User{ID: id, Role: domain.RoleAdmin}, nil
			}
			return nil, pgx.ErrNoRows
		},
	}
	guards := NewGuards(adminStore)
	ctx := context.Background()

	if guards.OwnsOrIsAdmin(ctx, nil, 5) {
		t.Error("nil identity must never own anything")
	}
	if !guards.OwnsOrIsAdmin(ctx, &domain.Identity{UserID: 5, Role: domain.RoleUser}, 5) {
		t.Error("owner must pass")
	}
	if guards.OwnsOrIsAdmin(ctx, &domain.Identity{UserID: 6, Role: domain.RoleUser}, 5) {
		t.Error("non-owner regular user must fail")
	}
	if !guards.OwnsOrIsAdmin(ctx, &domain.Identity{UserID: 1, Role: domain.RoleAdmin}, 5) {
		t.Error("store-confirmed admin must pass")
	}
	if guards.OwnsOrIsAdmin(ctx, &domain.Identity{UserID: 2, Role: domain.RoleAdmin}, 5) {
		t.Error("admin claim without a stored account must fail")
	}
}
