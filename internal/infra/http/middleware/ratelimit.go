package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/pkg/apierror"
	"github.com/openvocio/api/pkg/logger"
)

// visitor tracks the limiter and last-seen time for one client.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter applies a per-client token bucket keyed by remote IP.
type rateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex

	requestsPerSec float64
	burst          int
	logger         *logger.Logger
	stopCh         chan struct{}
}

// RateLimitWithStop returns the middleware and a stop function that
// terminates the idle-visitor cleanup goroutine.
func RateLimitWithStop(cfg *config.RateLimitConfig, log *logger.Logger) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		noop := func(next http.Handler) http.Handler { return next }
		return noop, func() {}
	}

	rl := &rateLimiter{
		visitors:       make(map[string]*visitor),
		requestsPerSec: cfg.RequestsPerSec,
		burst:          cfg.Burst,
		logger:         log.With("component", "ratelimit"),
		stopCh:         make(chan struct{}),
	}
	go rl.cleanupLoop()

	return rl.middleware, rl.stop
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !rl.limiterFor(ip).Allow() {
			rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			apierror.RateLimitExceeded().WriteJSON(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.requestsPerSec), rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	close(rl.stopCh)
}
