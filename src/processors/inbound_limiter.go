package processors

import "time"

// inboundLimiter is a token bucket over caller media frames. A nil limiter
// allows everything.
type inboundLimiter struct {
	now        func() time.Time
	rate       int64 // frames per second
	maxTokens  int64
	tokens     int64
	lastRefill time.Time
}

func newInboundLimiter(now func() time.Time, fps, burstSeconds int) *inboundLimiter {
	if fps <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if burstSeconds <= 0 {
		burstSeconds = 1
	}
	l := &inboundLimiter{
		now:        now,
		rate:       int64(fps),
		maxTokens:  int64(fps) * int64(burstSeconds),
		lastRefill: now(),
	}
	l.tokens = l.maxTokens
	return l
}

func (l *inboundLimiter) Allow() bool {
	if l == nil {
		return true
	}
	l.refill()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

func (l *inboundLimiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill)
	if elapsed <= 0 {
		return
	}
	add := elapsed.Nanoseconds() * l.rate / int64(time.Second)
	if add <= 0 {
		// partial interval carries over to the next call
		return
	}
	l.tokens += add
	if l.tokens >= l.maxTokens {
		l.tokens = l.maxTokens
		l.lastRefill = now
		return
	}
	l.lastRefill = l.lastRefill.Add(time.Duration(add * int64(time.Second) / l.rate))
}
