package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService("admin", string(hash), "test-secret")
}

func TestLogin(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "rahasia")
	require.NoError(t, err)
	subject, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	_, err = svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "root", "rahasia")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestAuth(t).(*service)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	token, err := svc.Login(context.Background(), "admin", "rahasia")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongKey(t *testing.T) {
	token, err := newTestAuth(t).Login(context.Background(), "admin", "rahasia")
	require.NoError(t, err)

	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	other := NewService("admin", string(hash), "another-secret")
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabled(t *testing.T) {
	svc := NewService("admin", "", "")
	assert.False(t, svc.Enabled())
	_, err := svc.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func guarded(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	r.With(RequireAdmin(svc)).Post("/api/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestRequireAdmin(t *testing.T) {
	svc := newTestAuth(t)
	h := guarded(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := svc.Login(context.Background(), "admin", "rahasia")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdmin_OpenWhenDisabled(t *testing.T) {
	h := guarded(NewService("admin", "", ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	h := guarded(newTestAuth(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"rahasia"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
