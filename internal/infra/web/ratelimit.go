package web

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimit returns a per-client-IP limiter middleware for the public
// checkout surface. Entries idle for three minutes are dropped.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	perSecond := rate.Limit(float64(s.ratePerMinute) / 60.0)
	burst := s.ratePerMinute
	if burst < 1 {
		burst = 1
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)
	getLimiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		for k, v := range visitors {
			if now.Sub(v.lastSeen) > 3*time.Minute {
				delete(visitors, k)
			}
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(perSecond, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// chi's RealIP middleware already resolved forwarded headers.
			if !getLimiter(r.RemoteAddr).Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
