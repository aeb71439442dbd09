package middleware

import (
	"net/http"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// RequirePricingEditor guards every write to pricing configuration and
// business data.
func RequirePricingEditor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enums.MemberRole(RoleFromContext(r.Context())).CanEditPricing() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this operation"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
