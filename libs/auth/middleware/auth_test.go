package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lmsplatform/backend/libs/auth/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMiddleware(t *testing.T) {
	tg := service.NewTokenGenerator("secret", time.Hour)
	studentToken, err := tg.GenerateAccessToken(7, 1)
	require.NoError(t, err)
	adminToken, err := tg.GenerateAccessToken(9, 3)
	require.NoError(t, err)

	tests := []struct {
		name           string
		allowedRoles   []int
		header         string
		cookie         string
		expectedStatus int
		expectedUserID int
	}{
		{name: "no token", expectedStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token " + studentToken, expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", expectedStatus: http.StatusUnauthorized},
		{name: "any role via header", header: "Bearer " + studentToken, expectedStatus: http.StatusOK, expectedUserID: 7},
		{name: "any role via cookie", cookie: adminToken, expectedStatus: http.StatusOK, expectedUserID: 9},
		{name: "allowed role", allowedRoles: []int{3}, header: "bearer " + adminToken, expectedStatus: http.StatusOK, expectedUserID: 9},
		{name: "forbidden role", allowedRoles: []int{3}, header: "Bearer " + studentToken, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int
			handler := RoleMiddleware(tg, tt.allowedRoles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedUserID, gotUserID)
		})
	}
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), 5, 2)

	userID, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, 5, userID)
	role, ok := GetRole(ctx)
	assert.True(t, ok)
	assert.Equal(t, 2, role)
}
