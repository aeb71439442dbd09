package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TenantID string
	UserID   string
	Role     enums.MemberRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. The user id
// travels as the registered subject.
type AccessTokenClaims struct {
	TenantID string           `json:"tenant_id"`
	Role     enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
