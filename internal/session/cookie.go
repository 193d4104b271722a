package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/auth"
)

const valueKey = "auth"

// CookieBackend guarda a sessão inteira, em JSON, num cookie assinado e cifrado.
type CookieBackend struct {
	store *sessions.CookieStore
}

// NewCookieBackend cria o backend com chaves derivadas do segredo informado.
func NewCookieBackend(opts Options) *CookieBackend {
	return &CookieBackend{store: newCookieStore(opts)}
}

func (b *CookieBackend) Bind(w http.ResponseWriter, r *http.Request) auth.SessionStore {
	return &cookieSession{store: b.store, w: w, r: r}
}

type cookieSession struct {
	store *sessions.CookieStore
	w     http.ResponseWriter
	r     *http.Request
}

func (c *cookieSession) get() *sessions.Session {
	sess, err := c.store.Get(c.r, CookieName)
	if err != nil {
		log.Debug().Err(err).Msg("cookie de sessão inválido; iniciando anônimo")
	}
	return sess
}

func (c *cookieSession) Load(context.Context) (auth.Session, error) {
	raw, ok := c.get().Values[valueKey].(string)
	if !ok || raw == "" {
		return auth.Session{}, nil
	}
	var s auth.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return auth.Session{}, nil
	}
	return s, nil
}

func (c *cookieSession) Save(_ context.Context, s auth.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	sess := c.get()
	sess.Values[valueKey] = string(payload)
	sess.Options.MaxAge = c.store.Options.MaxAge
	return sess.Save(c.r, c.w)
}

func (c *cookieSession) Clear(context.Context) error {
	sess := c.get()
	delete(sess.Values, valueKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.r, c.w)
}
