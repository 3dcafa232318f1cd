package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
	"github.com/Alijeyrad/staylink_backend/pkg/reqctx"
)

// AuthRequired validates a Bearer PASETO access token. On success the claims
// are stored in c.Locals(pasetotoken.CtxKeyClaims) and the user id is put on
// the request context.
func AuthRequired(mgr *pasetotoken.Manager) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithUserID(c.Context(), claims.UserID))
		return c.Next()
	}
}

// RequireAdmin lets only callers whose token carries the admin role through.
// It must run after AuthRequired.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !claims.IsAdmin() {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
