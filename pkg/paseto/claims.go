package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// Role names carried in the "role" claim.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Claims is the app-facing token payload. UserID is the verified identity a
// guest books as, a host links vendors as, and a vendor configures payouts as.
type Claims struct {
	Type   TokenType
	UserID uuid.UUID
	Role   string

	Issuer    string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
