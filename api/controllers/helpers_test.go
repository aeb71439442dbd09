package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cogsdesk-backend/api/middleware"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

const testTenant = "tenant-1"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-controllers", Level: "debug", Output: io.Discard})
}

// newRequest builds a request carrying the tenant and chi URL params the
// router would normally provide.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithTenantID(req.Context(), testTenant)
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h(resp, req)
	return resp
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, resp.Body.String())
	}
	return env
}

func expectErrorCode(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if resp.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, resp.Code, resp.Body.String())
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("expected error code %s, got %s", code, resp.Body.String())
	}
	return env
}
