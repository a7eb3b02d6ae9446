package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-analytics/internal/auth"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	}))

	t.Run("keeps incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})

	t.Run("generates one", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})
}

func TestJWTMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tm.GenerateToken("ops@example.com")
	require.NoError(t, err)

	var operator string
	handler := JWTMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetOperatorClaims(r.Context())
		require.True(t, ok)
		operator = logging.GetOperator(r.Context())
		assert.Equal(t, claims.Subject, operator)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer " + token, want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}

	assert.Equal(t, "ops@example.com", operator)
}

func TestRateLimiter_Middleware(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.BurstSize = 2
	rl := NewRateLimiter(cfg)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitByKey_OperatorMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	alice, err := tm.GenerateToken("alice@example.com")
	require.NoError(t, err)
	bob, err := tm.GenerateToken("bob@example.com")
	require.NoError(t, err)

	rl := NewRateLimitByKey(0.001, 1)
	handler := JWTMiddleware(tm)(rl.OperatorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusAccepted, do(alice))
	assert.Equal(t, http.StatusTooManyRequests, do(alice))
	assert.Equal(t, http.StatusAccepted, do(bob))
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: "debug", Format: "json", Output: &buf})

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("/things/{id}", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry[slog.LevelKey])
	assert.Equal(t, "/things/{id}", entry["route"])
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestRecoveryLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Format: "json", Output: &buf})

	handler := RecoveryLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}
