package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123")

func mustToken(t *testing.T, secret []byte, userID, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := IssueToken(secret, userID, userID+"@example.com", role, ttl)
	require.NoError(t, err)
	return tok
}

func TestAuthenticate(t *testing.T) {
	var seen User
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	authHandler := Authenticate(testSecret)(testHandler)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUser   string
	}{
		{name: "valid token", header: "Bearer " + mustToken(t, testSecret, "user-1", "", time.Hour), expectedStatus: http.StatusOK, expectedUser: "user-1"},
		{name: "lowercase scheme", header: "bearer " + mustToken(t, testSecret, "user-2", "", time.Hour), expectedStatus: http.StatusOK, expectedUser: "user-2"},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + mustToken(t, []byte("another-secret-value"), "user-1", "", time.Hour), expectedStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + mustToken(t, testSecret, "user-1", "", -time.Minute), expectedStatus: http.StatusUnauthorized},
		{name: "alg none", header: "Bearer " + noneToken, expectedStatus: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + noSubject, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = User{}
			req := httptest.NewRequest(http.MethodPost, "/api/orders/create-cod", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			authHandler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUser, seen.ID)
			if tt.expectedStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := Authenticate(testSecret)(RequireAdmin(okHandler))

	tests := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{name: "admin", role: RoleAdmin, expectedStatus: http.StatusOK},
		{name: "customer", role: "", expectedStatus: http.StatusForbidden},
		{name: "other role", role: "editor", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+mustToken(t, testSecret, "u", tt.role, time.Hour))
			w := httptest.NewRecorder()

			chain.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("without authentication", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdmin(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
