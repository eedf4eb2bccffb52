package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/secureleak/report-service/internal/config"
	"github.com/secureleak/report-service/internal/observability"
)

// securedApp mounts the global and security middlewares the way main
// does, with one JSON route behind them.
func securedApp() *fiber.App {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			LoginMaxAttempts:   10,
			LoginWindowMinutes: 5,
		},
		Session: config.SessionConfig{
			Secret:          "middleware-test-secret",
			LifetimeMinutes: 30,
			CookieName:      "session",
		},
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterSecurityMiddlewares(app, cfg)
	app.Post("/reports", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return envelope.Error.Code
}

func TestUnknownRouteAnswersNotFound(t *testing.T) {
	app := securedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown route = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", code)
	}
}

func TestMissingCSRFTokenAnswersForbidden(t *testing.T) {
	app := securedApp()

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("state-changing request without csrf token = %d, want 403", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "FORBIDDEN" {
		t.Errorf("error code = %q, want FORBIDDEN", code)
	}
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	app := securedApp()

	// Safe methods hand out the token cookie.
	seed, err := app.Test(httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var token *http.Cookie
	for _, cookie := range seed.Cookies() {
		if cookie.Name == "csrf_" {
			token = cookie
		}
	}
	if token == nil {
		t.Fatal("no csrf cookie issued on safe request")
	}

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Csrf-Token", token.Value)
	req.AddCookie(token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request with csrf token = %d, want 201", resp.StatusCode)
	}
}
