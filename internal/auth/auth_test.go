package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-signing-key", time.Hour)

	token, err := mgr.GenerateToken("user-42", "a@b.test")
	require.NoError(t, err)

	user, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", user.UserID)
	assert.Equal(t, "a@b.test", user.Email)
}

func TestExpiredTokenIsCredentialExpired(t *testing.T) {
	mgr := NewJWTManager("test-signing-key", time.Hour)
	mgr.expiry = -time.Minute

	token, err := mgr.GenerateToken("user-42", "a@b.test")
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestForeignSigningKeyRejected(t *testing.T) {
	token, err := NewJWTManager("key-one", time.Hour).GenerateToken("u", "e@x.test")
	require.NoError(t, err)

	_, err = NewJWTManager("key-two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	_, err = ExtractBearerToken("Basic abc")
	assert.Error(t, err)
	_, err = ExtractBearerToken("")
	assert.Error(t, err)
}

func TestMiddlewareAttachesUser(t *testing.T) {
	mgr := NewJWTManager("test-signing-key", time.Hour)
	token, err := mgr.GenerateToken("user-42", "a@b.test")
	require.NoError(t, err)

	var seen *UserContext
	handler := Middleware(mgr, zaptest.NewLogger(t))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = UserFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-42", seen.UserID)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	mgr := NewJWTManager("test-signing-key", time.Hour)
	handler := Middleware(mgr, zaptest.NewLogger(t))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
