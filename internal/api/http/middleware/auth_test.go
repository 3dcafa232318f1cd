package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
	"github.com/Alijeyrad/staylink_backend/pkg/reqctx"
)

func newManager(t *testing.T) *pasetotoken.Manager {
	t.Helper()
	keys := pasetotoken.NewLocalKeys()
	m, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "staylink", Audience: "staylink-api"}, keys)
	if err != nil {
		t.Fatalf("paseto manager: %v", err)
	}
	return m
}

func TestAuthRequired(t *testing.T) {
	mgr := newManager(t)
	uid := uuid.New()

	member, err := mgr.IssueAccess(uid, pasetotoken.RoleMember)
	if err != nil {
		t.Fatal(err)
	}
	admin, err := mgr.IssueAccess(uid, pasetotoken.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Use(RequestID())
	app.Get("/me", AuthRequired(mgr), func(c fiber.Ctx) error {
		id, ok := reqctx.UserIDFromContext(c.Context())
		if !ok || id != uid {
			return fiber.ErrInternalServerError
		}
		if reqctx.RequestIDFromContext(c.Context()) == "" {
			return fiber.ErrInternalServerError
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/admin", AuthRequired(mgr), RequireAdmin(), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + member, fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer v4.local.nope", fiber.StatusUnauthorized},
		{"valid member", "/me", "Bearer " + member, fiber.StatusNoContent},
		{"member on admin route", "/admin", "Bearer " + member, fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + admin, fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequestID_Echo(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
		t.Errorf("generated request id is not a uuid: %v", err)
	}
}
