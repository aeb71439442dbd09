package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// clockSkew tolerates small drift between the issuing dashboard and the API.
const clockSkew = 30 * time.Second

var (
	ErrMisconfigured = errors.New("jwt configuration incomplete")
	ErrMissingTenant = errors.New("token missing tenant_id")
	ErrInvalidRole   = errors.New("token carries unknown role")
)

func checkConfig(cfg config.JWTConfig, minting bool) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("%w: secret is empty", ErrMisconfigured)
	case cfg.Issuer == "":
		return fmt.Errorf("%w: issuer is empty", ErrMisconfigured)
	case minting && cfg.ExpirationMinutes <= 0:
		return fmt.Errorf("%w: expiration minutes must be positive", ErrMisconfigured)
	}
	return nil
}

// MintAccessToken signs an HS256 token scoped to one tenant and role.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg, true); err != nil {
		return "", err
	}
	tenantID := strings.TrimSpace(payload.TenantID)
	if tenantID == "" {
		return "", ErrMissingTenant
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	claims := AccessTokenClaims{
		TenantID: tenantID,
		Role:     payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   strings.TrimSpace(payload.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then requires a
// tenant and a role this service knows how to authorize.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg, false); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)

	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(claims.TenantID) == "" {
		return nil, ErrMissingTenant
	}
	role, err := enums.ParseMemberRole(string(claims.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, claims.Role)
	}
	claims.Role = role
	return claims, nil
}
