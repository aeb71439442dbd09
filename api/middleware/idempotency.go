package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/cogsdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/cogsdesk-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL = 24 * time.Hour
	// Price book imports replace whole books, so a retried import days later
	// must still replay instead of re-applying.
	importIdempotencyTTL = 7 * 24 * time.Hour
)

// idempotentRoute lists the writes that require an Idempotency-Key. A "*"
// segment matches any single path segment.
type idempotentRoute struct {
	method string
	path   string
	ttl    time.Duration
}

var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, "/api/v1/price-books", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/price-books/import", importIdempotencyTTL},
	{http.MethodPost, "/api/v1/combos", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/combos/*/deactivate", defaultIdempotencyTTL},
	{http.MethodPut, "/api/v1/variants", defaultIdempotencyTTL},
	{http.MethodPut, "/api/v1/orders", defaultIdempotencyTTL},
	{http.MethodPut, "/api/v1/ad-spend", defaultIdempotencyTTL},
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency replays the first response for a repeated key on the listed
// write routes. Server errors are not stored so the client can retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, requestPath(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintRequest(r, body)
			storeKey := store.IdempotencyKey(idempotencyScope(r), key)

			raw, err := store.Get(ctx, storeKey)
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
				return
			case err == nil && raw != "":
				var prior storedResponse
				if err := json.Unmarshal([]byte(raw), &prior); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if prior.Fingerprint != fingerprint {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body").
						WithDetails(map[string]any{"key": key}))
					return
				}
				replay(w, prior)
				return
			}

			rec := newRecorder(w, true)
			next.ServeHTTP(rec, r)

			if rec.Status() >= http.StatusInternalServerError {
				return
			}
			payload, err := json.Marshal(storedResponse{
				Status:      rec.Status(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				Fingerprint: fingerprint,
			})
			if err != nil {
				logg.Error(ctx, "idempotency.encode_failed", err)
				return
			}
			if _, err := store.SetNX(ctx, storeKey, string(payload), ttl); err != nil {
				logg.Error(ctx, "idempotency.store_failed", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, prior storedResponse) {
	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(prior.Status)
	if len(prior.Body) > 0 {
		_, _ = w.Write(prior.Body)
	}
}

// idempotencyScope keeps keys from colliding across tenants, callers or routes.
func idempotencyScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{TenantIDFromContext(ctx), UserIDFromContext(ctx), r.Method, requestPath(r)}, "|")
}

func fingerprintRequest(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(requestPath(r)))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// requestPath matches on the concrete path: the middleware runs on the
// /api/v1 group before chi has resolved the leaf route pattern.
func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	if path := strings.TrimRight(r.URL.Path, "/"); path != "" {
		return path
	}
	return "/"
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.method == method && pathMatches(route.path, path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func pathMatches(pattern, path string) bool {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}
