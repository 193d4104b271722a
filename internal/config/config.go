package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// ErrInvalid indica configuração ausente ou inválida.
var ErrInvalid = errors.New("configuração inválida")

// Backends de sessão aceitos em SESSION_BACKEND.
const (
	SessionCookie = "cookie"
	SessionRedis  = "redis"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	Store           store.Config
	AuthKind        auth.Kind
	HostedURL       string
	HostedAPIKey    string
	AllowedDomain   string
	SessionSecret   string
	SessionBackend  string
	SessionTTL      time.Duration
	RedisURL        string
	AllowOrigins    []string
	LogLevel        zerolog.Level
	RateLimitPublic RateLimitConfig
	RateLimitLogin  RateLimitConfig
	RateLimitUser   RateLimitConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SecureCookies informa se o cookie de sessão deve exigir HTTPS.
// Origens locais liberam o cookie sem TLS.
func (c *Config) SecureCookies() bool {
	for _, origin := range c.AllowOrigins {
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			return false
		}
	}
	return len(c.AllowOrigins) > 0
}

// Load carrega .env (quando existir) e o ambiente do processo.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv monta a configuração a partir da função de consulta informada.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := lookupFunc(lookup).get

	cfg := &Config{}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, invalid("PORT inválida")
	}
	cfg.Port = port

	storeCfg, err := StoreFromEnv(lookup)
	if err != nil {
		return nil, err
	}
	cfg.Store = storeCfg

	authKind, err := auth.ParseKind(get("AUTH_TYPE", string(auth.KindLocal)))
	if err != nil {
		return nil, fmt.Errorf("%w: AUTH_TYPE: %w", ErrInvalid, err)
	}
	cfg.AuthKind = authKind
	cfg.HostedURL = get("SUPABASE_URL", "")
	cfg.HostedAPIKey = get("SUPABASE_API_KEY", "")
	if authKind == auth.KindSupabase && (cfg.HostedURL == "" || cfg.HostedAPIKey == "") {
		return nil, invalid("SUPABASE_URL e SUPABASE_API_KEY obrigatórios com AUTH_TYPE=supabase")
	}
	cfg.AllowedDomain = get("ALLOWED_EMAIL_DOMAIN", "wpd.fr")

	cfg.SessionSecret = get("SESSION_SECRET", "")
	if len(cfg.SessionSecret) < 32 {
		return nil, invalid("SESSION_SECRET deve ter pelo menos 32 caracteres")
	}

	cfg.SessionBackend = get("SESSION_BACKEND", SessionCookie)
	switch cfg.SessionBackend {
	case SessionCookie:
	case SessionRedis:
		cfg.RedisURL = get("REDIS_URL", "")
		if cfg.RedisURL == "" {
			return nil, invalid("REDIS_URL obrigatório com SESSION_BACKEND=redis")
		}
	default:
		return nil, invalid("SESSION_BACKEND deve ser cookie ou redis")
	}

	ttl, err := parseDuration(get("SESSION_TTL", ""), "SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = ttl

	for _, origin := range strings.Split(get("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(get("LOG_LEVEL", "info")))
	if err != nil {
		return nil, invalid("LOG_LEVEL inválido")
	}
	cfg.LogLevel = level

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: 2, Burst: 5}
	cfg.RateLimitUser = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

// StoreFromEnv lê apenas a seleção do backend de dados (DB_TYPE, DB_PATH, DB_DSN).
func StoreFromEnv(lookup func(string) (string, bool)) (store.Config, error) {
	get := lookupFunc(lookup).get

	kind, err := store.ParseKind(get("DB_TYPE", string(store.KindSQLite)))
	if err != nil {
		return store.Config{}, fmt.Errorf("%w: DB_TYPE: %w", ErrInvalid, err)
	}
	cfg := store.Config{
		Kind:        kind,
		SQLitePath:  get("DB_PATH", "data/farmdesk.db"),
		PostgresDSN: get("DB_DSN", ""),
	}
	if kind == store.KindSupabase && cfg.PostgresDSN == "" {
		return store.Config{}, invalid("DB_DSN obrigatório com DB_TYPE=supabase")
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (l lookupFunc) get(key, def string) string {
	if val, ok := l(key); ok {
		return strings.TrimSpace(val)
	}
	return def
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

func parseDuration(val, key string, def time.Duration) (time.Duration, error) {
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, invalid(key + " inválido")
	}
	return dur, nil
}
