package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyFunc extrai a chave de limitação; ok=false deixa a requisição passar.
type KeyFunc func(*http.Request) (key string, ok bool)

// RateLimiter guarda um token bucket por chave e descarta os ociosos.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	idle   time.Duration
	now    func() time.Time
	mu     sync.Mutex
	bucket map[string]*bucket
	swept  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter cria o limitador com rps e burst configurados.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		idle:   10 * time.Minute,
		now:    time.Now,
		bucket: make(map[string]*bucket),
	}
}

func (l *RateLimiter) reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > l.idle {
		for k, b := range l.bucket {
			if now.Sub(b.seen) > l.idle {
				delete(l.bucket, k)
			}
		}
		l.swept = now
	}

	b, ok := l.bucket[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.bucket[key] = b
	}
	b.seen = now

	if b.lim.AllowN(now, 1) {
		return 0
	}
	r := b.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Second
	}
	return delay
}

// Limit aplica o limitador usando a chave de keyFn.
func (l *RateLimiter) Limit(keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyFn(r)
			if !ok || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if wait := l.reserve(key); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ByIP usa o IP remoto; o chi RealIP já deve ter reescrito RemoteAddr.
func ByIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr), true
	}
	return host, true
}

// BySubject usa o subject autenticado.
func BySubject(r *http.Request) (string, bool) {
	sub := GetSubject(r.Context())
	return sub, sub != ""
}
