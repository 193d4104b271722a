// Package session persiste a sessão de autenticação de cada cliente HTTP.
package session

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/gestaozabele/farmdesk/internal/auth"
)

// CookieName é o nome do cookie de sessão.
const CookieName = "farmdesk_session"

// Backend liga a requisição corrente a um auth.SessionStore.
type Backend interface {
	Bind(w http.ResponseWriter, r *http.Request) auth.SessionStore
}

// Options parametriza o cookie.
type Options struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// newCookieStore assina e cifra o cookie. A chave AES-256 deriva do segredo.
func newCookieStore(opts Options) *sessions.CookieStore {
	blockKey := sha256.Sum256([]byte("farmdesk/session/block:" + opts.Secret))
	store := sessions.NewCookieStore([]byte(opts.Secret), blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
