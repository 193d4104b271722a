package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/farmdesk/internal/gotrue"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/store/storetest"
	"github.com/gestaozabele/farmdesk/internal/util"
)

type fakeHosted struct {
	calls   atomic.Int32
	expires time.Time
}

func (f *fakeHosted) token(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(f.expires),
	})
	signed, err := tok.SignedString([]byte("segredo-do-servico"))
	require.NoError(t, err)
	return signed
}

func (f *fakeHosted) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Query().Get("grant_type") {
		case "password":
			switch {
			case body["email"] == "limitado@wpd.fr":
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error_code":"over_request_rate_limit","msg":"Request rate limit reached"}`))
				return
			case body["email"] == "pendente@wpd.fr":
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error_code":"email_not_confirmed","msg":"Email not confirmed"}`))
				return
			case body["password"] != "senha-certa":
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
		case "refresh_token":
			if body["refresh_token"] != "rt-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.token(t, "u-1"),
			"refresh_token": "rt-2",
			"expires_in":    3600,
			"user":          map[string]string{"id": "u-1", "email": "ana@wpd.fr"},
		})
	})
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "ana@wpd.fr" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-2","email":"` + body["email"] + `"}`))
	})
	return mux
}

func newHosted(t *testing.T) (*HostedProvider, *fakeHosted) {
	t.Helper()
	fake := &fakeHosted{expires: time.Now().Add(time.Hour).Truncate(time.Second)}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, err := gotrue.New(gotrue.Config{URL: srv.URL, APIKey: "anon"})
	require.NoError(t, err)

	adapter := storetest.NewSQLite(t)
	_, err = adapter.Insert(context.Background(), "profiles", store.Row{"id": "u-1", "email": "ana@wpd.fr", "role": "user"})
	require.NoError(t, err)

	return NewHostedProvider(client, adapter, "wpd.fr"), fake
}

func TestHostedLogin(t *testing.T) {
	p, fake := newHosted(t)

	s, err := p.Login(context.Background(), "ana@wpd.fr", "senha-certa")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, RoleUser, s.Role)
	assert.Equal(t, "rt-2", s.RefreshToken)
	assert.True(t, fake.expires.Equal(s.ExpiresAt))
}

func TestHostedLoginErrors(t *testing.T) {
	p, _ := newHosted(t)
	ctx := context.Background()

	_, err := p.Login(ctx, "ana@wpd.fr", "errada")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = p.Login(ctx, "pendente@wpd.fr", "senha-certa")
	assert.True(t, errors.Is(err, ErrEmailNotConfirmed))

	_, err = p.Login(ctx, "limitado@wpd.fr", "senha-certa")
	assert.True(t, errors.Is(err, ErrRateLimited), "err = %v", err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestHostedUnreachableIsConfiguration(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := gotrue.New(gotrue.Config{URL: url, APIKey: "anon"})
	require.NoError(t, err)
	p := NewHostedProvider(client, storetest.NewSQLite(t), "wpd.fr")

	_, err = p.Login(context.Background(), "ana@wpd.fr", "senha-certa")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestHostedRefresh(t *testing.T) {
	p, _ := newHosted(t)
	ctx := context.Background()

	s, err := p.RefreshSession(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "rt-2", s.RefreshToken)
	assert.Equal(t, "u-1", s.UserID)

	_, err = p.RefreshSession(ctx, "rt-velho")
	assert.True(t, errors.Is(err, ErrRefreshFailed))

	_, err = p.RefreshSession(ctx, "")
	assert.True(t, errors.Is(err, ErrRefreshFailed))
}

func TestHostedLogoutIsBestEffort(t *testing.T) {
	p, fake := newHosted(t)

	err := p.Logout(context.Background(), Session{UserID: "u-1", AccessToken: "at", Authenticated: true})
	assert.NoError(t, err)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestHostedSignupChecksDomainFirst(t *testing.T) {
	p, fake := newHosted(t)
	ctx := context.Background()

	_, err := p.Signup(ctx, "intrusa@gmail.com", "senha-certa")
	assert.True(t, errors.Is(err, ErrDomainNotAllowed))
	assert.Equal(t, int32(0), fake.calls.Load())

	_, err = p.Signup(ctx, "curta@wpd.fr", "curta")
	assert.True(t, errors.Is(err, util.ErrValidation))
	assert.Equal(t, int32(0), fake.calls.Load())

	_, err = p.Signup(ctx, "ana@wpd.fr", "senha-certa")
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))

	s, err := p.Signup(ctx, "Nova@WPD.fr", "senha-certa")
	require.NoError(t, err)
	assert.False(t, s.Authenticated)
	assert.Equal(t, "u-2", s.UserID)
	assert.Equal(t, "nova@wpd.fr", s.Email)
}

func TestTokenExpiry(t *testing.T) {
	_, ok := TokenExpiry("nao-e-jwt")
	assert.False(t, ok)

	fake := &fakeHosted{expires: time.Unix(1_900_000_000, 0)}
	exp, ok := TokenExpiry(fake.token(t, "u"))
	require.True(t, ok)
	assert.Equal(t, int64(1_900_000_000), exp.Unix())
}
