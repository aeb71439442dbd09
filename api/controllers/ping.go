package controllers

import (
	"net/http"

	"github.com/angelmondragon/cogsdesk-backend/api/middleware"
	"github.com/angelmondragon/cogsdesk-backend/api/responses"
)

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if tenant := middleware.TenantIDFromContext(r.Context()); tenant != "" {
			payload["tenant_id"] = tenant
		}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = role
		}
		responses.WriteSuccess(w, payload)
	}
}
