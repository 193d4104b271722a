package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/farmdesk/internal/auth"
)

const (
	idKey     = "sid"
	keyPrefix = "session:"
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBackend guarda no cookie apenas um identificador opaco; a sessão fica
// no Redis sob session:<hash do identificador>, com expiração.
type RedisBackend struct {
	redis   redisCommander
	cookies *sessions.CookieStore
	ttl     time.Duration
}

// NewRedisBackend cria o backend sobre o cliente informado.
func NewRedisBackend(client *redis.Client, opts Options) *RedisBackend {
	return newRedisBackend(client, opts)
}

func newRedisBackend(r redisCommander, opts Options) *RedisBackend {
	return &RedisBackend{redis: r, cookies: newCookieStore(opts), ttl: opts.TTL}
}

func (b *RedisBackend) Bind(w http.ResponseWriter, r *http.Request) auth.SessionStore {
	return &redisSession{backend: b, w: w, r: r}
}

// RedisKey monta a chave da sessão a partir do identificador bruto do cookie.
func RedisKey(rawID string) string {
	return keyPrefix + auth.HashOpaqueToken(rawID)
}

type redisSession struct {
	backend *RedisBackend
	w       http.ResponseWriter
	r       *http.Request
}

func (s *redisSession) cookie() *sessions.Session {
	sess, _ := s.backend.cookies.Get(s.r, CookieName)
	return sess
}

func (s *redisSession) Load(ctx context.Context) (auth.Session, error) {
	rawID, _ := s.cookie().Values[idKey].(string)
	if rawID == "" {
		return auth.Session{}, nil
	}

	payload, err := s.backend.redis.Get(ctx, RedisKey(rawID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Session{}, nil
		}
		return auth.Session{}, fmt.Errorf("ler sessão: %w", err)
	}

	var out auth.Session
	if err := json.Unmarshal(payload, &out); err != nil {
		return auth.Session{}, nil
	}
	return out, nil
}

// Save grava a sessão sob um identificador novo e descarta o anterior, de modo
// que um cookie emitido antes do login nunca aponta para a sessão autenticada.
func (s *redisSession) Save(ctx context.Context, data auth.Session) error {
	sess := s.cookie()
	if oldID, _ := sess.Values[idKey].(string); oldID != "" {
		if err := s.backend.redis.Del(ctx, RedisKey(oldID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("remover sessão anterior: %w", err)
		}
	}
	rawID, _, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := s.backend.redis.Set(ctx, RedisKey(rawID), payload, s.backend.ttl).Err(); err != nil {
		return fmt.Errorf("gravar sessão: %w", err)
	}
	sess.Values[idKey] = rawID
	sess.Options.MaxAge = s.backend.cookies.Options.MaxAge
	return sess.Save(s.r, s.w)
}

func (s *redisSession) Clear(ctx context.Context) error {
	sess := s.cookie()
	if rawID, _ := sess.Values[idKey].(string); rawID != "" {
		if err := s.backend.redis.Del(ctx, RedisKey(rawID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("remover sessão: %w", err)
		}
	}
	delete(sess.Values, idKey)
	sess.Options.MaxAge = -1
	return sess.Save(s.r, s.w)
}
