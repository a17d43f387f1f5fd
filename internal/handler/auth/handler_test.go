package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/bodyworks/scheduler-api/pkg/auth"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
	"github.com/bodyworks/scheduler-api/pkg/security"
)

func newTestRouter(t *testing.T) (*gin.Engine, *pkgauth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("open-sesame")
	require.NoError(t, err)

	tokens := pkgauth.NewTokenService("test-secret", time.Hour)
	r := gin.New()
	NewHandler(tokens, hasher, hash).RegisterRoutes(r.Group(""))
	return r, tokens
}

func login(t *testing.T, r *gin.Engine, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r, tokens := newTestRouter(t)

	w := login(t, r, "open-sesame")
	require.Equal(t, http.StatusOK, w.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	subject, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner", subject)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	w := login(t, r, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginMissingPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	w := login(t, r, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
