package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role distinguishes end users from internal callers.
type Role string

const (
	RoleUser    Role = "user"
	RoleService Role = "service"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleService
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Role   Role
	JTI    string
}

// AccessTokenClaims is the typed JWT issued by the host application.
type AccessTokenClaims struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
	jwt.RegisteredClaims
}
