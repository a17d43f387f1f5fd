package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodyworks/scheduler-api/internal/handler/appointment"
	authhandler "github.com/bodyworks/scheduler-api/internal/handler/auth"
	"github.com/bodyworks/scheduler-api/internal/handler/health"
	"github.com/bodyworks/scheduler-api/internal/middleware"
	"github.com/bodyworks/scheduler-api/internal/repository/memory"
	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/auth"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
	"github.com/bodyworks/scheduler-api/pkg/security"
)

const ownerPassword = "open-sesame"

func newTestServer(t *testing.T) *httptest.Server {
	return newCachingTestServer(t, 0)
}

func newCachingTestServer(t *testing.T, cacheTTL time.Duration) *httptest.Server {
	t.Helper()

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash(ownerPassword)
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := scheduler.NewService(memory.NewStore(), nil, nil, nil)

	cfg := DefaultConfig()
	cfg.RateLimitEnabled = false
	cfg.CacheTTL = cacheTTL

	r := NewRouter(
		middleware.NewAuthMiddleware(tokens),
		nil,
		cfg,
		[]Handler{health.NewHandler(nil), authhandler.NewHandler(tokens, hasher, hash)},
		[]Handler{appointment.NewHandler(svc)},
	)
	r.Setup()

	srv := httptest.NewServer(r.Engine())
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, httputil.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed httputil.Response
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, parsed := request(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"password": ownerPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := request(t, srv, http.MethodGet, "/api/v1/appointments?date=2026-03-02", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, srv, http.MethodGet, "/api/v1/appointments?date=2026-03-02", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBookingFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	// Book
	resp, parsed := request(t, srv, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"client_id":        uuid.NewString(),
		"start_time":       start.Format(time.RFC3339),
		"duration_minutes": 60,
		"service_type":     "swedish",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := parsed.Data.(map[string]interface{})
	id := data["id"].(string)
	require.NotEmpty(t, id)

	// Double-booking the same hour is a conflict
	resp, _ = request(t, srv, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"client_id":        uuid.NewString(),
		"start_time":       start.Add(30 * time.Minute).Format(time.RFC3339),
		"duration_minutes": 60,
		"service_type":     "sports",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The day's calendar shows the booking
	resp, parsed = request(t, srv, http.MethodGet, "/api/v1/appointments?date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed, ok := parsed.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, listed, 1)

	// Cancel frees the slot
	resp, _ = request(t, srv, http.MethodPost, "/api/v1/appointments/"+id+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, srv, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"client_id":        uuid.NewString(),
		"start_time":       start.Format(time.RFC3339),
		"duration_minutes": 60,
		"service_type":     "swedish",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCachedConflictAnswerRefreshesAfterBooking(t *testing.T) {
	srv := newCachingTestServer(t, 15*time.Second)
	token := login(t, srv)
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	query := url.Values{
		"start":            {start.Format(time.RFC3339)},
		"duration_minutes": {"60"},
	}
	conflictPath := "/api/v1/appointments/conflict?" + query.Encode()

	// Prime the cache with the pre-booking answer.
	resp, parsed := request(t, srv, http.MethodGet, conflictPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := parsed.Data.(map[string]interface{})
	require.Equal(t, false, data["conflict"])

	resp, _ = request(t, srv, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"client_id":        uuid.NewString(),
		"start_time":       start.Format(time.RFC3339),
		"duration_minutes": 60,
		"service_type":     "swedish",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The booking must be visible immediately, not after the TTL.
	resp, parsed = request(t, srv, http.MethodGet, conflictPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = parsed.Data.(map[string]interface{})
	assert.Equal(t, true, data["conflict"])
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
