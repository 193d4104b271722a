package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter mantém um token bucket por chave, descartando chaves ociosas.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	maxAge time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter cria o limitador com reqPerSec requisições por segundo e rajada burst.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		maxAge:  10 * time.Minute,
		buckets: make(map[string]*bucket),
	}
}

// Allow consome um token da chave.
func (l *RateLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	if now.Sub(l.swept) > l.maxAge {
		for k, other := range l.buckets {
			if now.Sub(other.seen) > l.maxAge {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Size devolve o número de chaves acompanhadas.
func (l *RateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// LimitByKey aplica o limite pela chave extraída da requisição. Sem chave, passa direto.
func (l *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) (string, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := keyFunc(r)
		if !ok || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l.limit)))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IPRateLimit usa o IP remoto como chave. Espera chi RealIP antes na cadeia.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			return "ip:" + remoteHost(r), true
		})
	}
}

// UserRateLimit usa o usuário autenticado como chave; exige RequireAuth antes.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			subject := GetSubject(r.Context())
			if subject == "" {
				return "", false
			}
			return "user:" + subject, true
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(limit rate.Limit) int {
	if limit <= 0 || limit >= 1 {
		return 1
	}
	return int(1/float64(limit)) + 1
}
