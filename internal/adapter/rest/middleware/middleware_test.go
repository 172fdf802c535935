package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFunc func(ctx context.Context, token string) (string, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (string, error) { return f(ctx, token) }

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	fmt.Fprint(w, id)
}

func TestRequireAuth(t *testing.T) {
	authenticator := authFunc(func(_ context.Context, token string) (string, error) {
		switch token {
		case "good":
			return "u1", nil
		case "revoked":
			return "", domain.ErrTokenRevoked
		case "slow":
			return "", fmt.Errorf("user lookup: %w", context.DeadlineExceeded)
		case "broken":
			return "", errors.New("mongo down")
		}
		return "", domain.ErrUnauthenticated
	})
	h := RequireAuth(authenticator, "token", logger.NewNop())(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		cookie     string
		bearer     string
		wantStatus int
		wantBody   string
	}{
		{name: "cookie", cookie: "good", wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "bearer fallback", bearer: "good", wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "invalid", cookie: "forged", wantStatus: http.StatusUnauthorized},
		{name: "revoked", cookie: "revoked", wantStatus: http.StatusUnauthorized},
		{name: "timeout", cookie: "slow", wantStatus: http.StatusGatewayTimeout},
		{name: "lookup failure", cookie: "broken", wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestOptionalToken(t *testing.T) {
	var seen bool
	h := OptionalToken("token")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = TokenPresent(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "anything"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, seen)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"http://localhost:3000", " https://app.example.com "})(next)

	t.Run("allowed origin is reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/listings/1", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/listings/1", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/listings/add", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.NewMetricsManager("test")

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/listings/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/listings/"+id, nil))
	}

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "test_api_request_latency_seconds" {
			continue
		}
		require.Len(t, f.GetMetric(), 1, "one series for the pattern, not one per id")
		for _, l := range f.GetMetric()[0].GetLabel() {
			if l.GetName() == "route" {
				assert.Equal(t, "/listings/{id}", l.GetValue())
			}
		}
		assert.Equal(t, uint64(3), f.GetMetric()[0].GetHistogram().GetSampleCount())
		return
	}
	t.Fatal("latency histogram not gathered")
}
