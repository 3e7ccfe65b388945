package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per client IP inside a fixed
// time frame. Windows are created lazily and pruned in the background.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
}

func NewFixedWindowLimiter(limit int, frame time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		frame:   frame,
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.frame)
	for range ticker.C {
		now := time.Now()
		rl.Lock()
		for ip, w := range rl.clients {
			if now.Sub(w.start) >= rl.frame {
				delete(rl.clients, ip)
			}
		}
		rl.Unlock()
	}
}

// Allow reports whether the request may proceed. When the limit is
// exhausted it also returns how long the client should wait before
// retrying.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.Lock()
	defer rl.Unlock()

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) >= rl.frame {
		rl.clients[ip] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	return false, rl.frame - now.Sub(w.start)
}
