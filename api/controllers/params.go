package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/cogsdesk-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

func tenantFromRequest(r *http.Request) (string, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	return tenantID, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	return value, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw, err := requiredParam(r, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
