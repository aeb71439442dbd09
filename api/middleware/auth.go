package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	pkgAuth "github.com/angelmondragon/cogsdesk-backend/pkg/auth"
	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// Auth admits requests carrying a valid bearer token and stores the caller
// as the request Principal.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrInvalidRole) {
					msg = "token role not recognized"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			p := Principal{TenantID: claims.TenantID, UserID: claims.Subject, Role: claims.Role}
			ctx := withPrincipal(r.Context(), p)
			ctx = logg.WithTenantID(ctx, p.TenantID)
			if p.UserID != "" {
				ctx = logg.WithUserID(ctx, p.UserID)
			}
			ctx = logg.WithField(ctx, "actor_role", string(p.Role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
