package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: TenantID must be present on every token; data reads are scoped to it.
// Operator capabilities are granted by role checks in internal/rbac, never by claims alone.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
