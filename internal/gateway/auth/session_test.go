package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T, ttl time.Duration) *Sessions {
	t.Helper()
	s, err := NewSessions("test-secret", "ajstudioz", ttl)
	require.NoError(t, err)
	return s
}

func TestNewSessionsRequiresSecret(t *testing.T) {
	_, err := NewSessions("", "ajstudioz", time.Hour)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	s := newTestSessions(t, time.Hour)

	token, err := s.Issue("u1", "a@b.com")
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "u1", claims.Subject)
}

func TestValidateExpired(t *testing.T) {
	s := newTestSessions(t, time.Hour)
	token, err := s.Issue("u1", "a@b.com")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongSecret(t *testing.T) {
	other, err := NewSessions("other-secret", "ajstudioz", time.Hour)
	require.NoError(t, err)
	token, err := other.Issue("u1", "a@b.com")
	require.NoError(t, err)

	_, err = newTestSessions(t, time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongIssuer(t *testing.T) {
	other, err := NewSessions("test-secret", "someone-else", time.Hour)
	require.NoError(t, err)
	token, err := other.Issue("u1", "a@b.com")
	require.NoError(t, err)

	_, err = newTestSessions(t, time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookie  string
		want    string
		wantErr error
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "cookie", cookie: "xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", cookie: "xyz", want: "abc"},
		{name: "no token", wantErr: ErrNoToken},
		{name: "wrong scheme", header: "Basic abc", wantErr: ErrInvalidToken},
		{name: "empty bearer", header: "Bearer ", wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}

			got, err := TokenFromRequest(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
