package network

import (
	"sync"
	"time"
)

// Limiter paces packet sends at a constant rate (packets/sec). It accumulates
// deadlines instead of sleeping a fixed interval per packet, so scheduler
// jitter on one send does not shift every later send.
type Limiter struct {
	interval time.Duration
	next     time.Time
	mu       sync.Mutex
}

// NewLimiter creates a limiter for the given rate in packets per second.
// rate <= 0 returns nil; a nil limiter never blocks (unthrottled sends).
func NewLimiter(rate int) *Limiter {
	if rate <= 0 {
		return nil
	}
	return &Limiter{
		interval: time.Duration(float64(time.Second) / float64(rate)),
	}
}

// Wait blocks until it is time to send the next packet.
func (l *Limiter) Wait() {
	if l == nil {
		return
	}

	l.mu.Lock()
	now := time.Now()
	if l.next.Before(now) {
		l.next = now
	}
	wait := l.next.Sub(now)
	l.next = l.next.Add(l.interval)
	l.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
