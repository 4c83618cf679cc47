package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

type keyLookup map[string]*model.User

func (k keyLookup) FindByAPIKey(_ context.Context, key string) (*model.User, error) {
	return k[key], nil
}

func newTestAuth() *AuthMiddleware {
	users := keyLookup{"rq_valid": {ID: "user-2", Email: "k@example.com", Role: model.UserRoleUser}}
	return NewAuthMiddleware(config.JWTConfig{Secret: "test-secret", ExpirationHours: 1}, users)
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r.Context())
		w.Write([]byte(claims.UserID))
	})
}

func TestToken_RoundTrip(t *testing.T) {
	auth := newTestAuth()

	token, exp, err := auth.GenerateToken(&model.User{ID: "user-1", Email: "a@example.com", Role: model.UserRoleAdmin})
	require.NoError(t, err)
	assert.NotZero(t, exp)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.UserRoleAdmin, claims.Role)
}

func TestToken_WrongSecretOrAlgorithm(t *testing.T) {
	auth := newTestAuth()

	other := NewAuthMiddleware(config.JWTConfig{Secret: "other", ExpirationHours: 1}, nil)
	token, _, err := other.GenerateToken(&model.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: tokenIssuer})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ValidateToken(raw)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	auth := newTestAuth()
	token, _, err := auth.GenerateToken(&model.User{ID: "user-1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header map[string]string
		status int
		body   string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, "user-1"},
		{"api key", map[string]string{"X-API-Key": "rq_valid"}, http.StatusOK, "user-2"},
		{"bad key", map[string]string{"X-API-Key": "rq_nope"}, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"bad token", map[string]string{"Authorization": "Bearer junk"}, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"nothing", nil, http.StatusUnauthorized, `{"error":"unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(whoAmI()).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := newTestAuth()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	auth.RequireAdmin(ok).ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &model.TokenClaims{Role: model.UserRoleUser})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	auth.RequireAdmin(ok).ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &model.TokenClaims{Role: model.UserRoleAdmin})))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogger_RequestID(t *testing.T) {
	var seen string
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
