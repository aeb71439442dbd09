package middleware

import (
	"context"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// Principal is the authenticated caller. Every pricing read and write is
// scoped to TenantID.
type Principal struct {
	TenantID string
	UserID   string
	Role     enums.MemberRole
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by Auth; ok is false when the
// request never passed through it.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func TenantIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.TenantID
}

func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return string(p.Role)
}

// WithTenantID sets the tenant on the current principal, for tests and
// internal callers that bypass Auth.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.TenantID = tenantID
	return withPrincipal(ctx, p)
}

// WithRole sets the role on the current principal.
func WithRole(ctx context.Context, role string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.Role = enums.MemberRole(role)
	return withPrincipal(ctx, p)
}
