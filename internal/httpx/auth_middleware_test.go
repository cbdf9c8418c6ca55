package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookmanagement/internal/platform/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevocations) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	token, jti, err := crypto.GenerateToken(secret, "user-1", "USER", time.Hour)
	require.NoError(t, err)

	var gotUser, gotJTI string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFrom(r)
		gotJTI = TokenIDFrom(r)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		header      string
		revocations RevocationChecker
		wantStatus  int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer invalid.token.here", wantStatus: http.StatusUnauthorized},
		{
			name:        "revoked token",
			header:      "Bearer " + token,
			revocations: fakeRevocations{revoked: map[string]bool{jti: true}},
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "revocation store failure",
			header:      "Bearer " + token,
			revocations: fakeRevocations{err: errors.New("redis down")},
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "not revoked",
			header:      "Bearer " + token,
			revocations: fakeRevocations{revoked: map[string]bool{}},
			wantStatus:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotJTI = "", ""
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(secret, tt.revocations)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user-1", gotUser)
				assert.Equal(t, jti, gotJTI)
			}
		})
	}
}
