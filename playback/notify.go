package playback

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Notification is the textual now-playing payload republished to the
// user-visible notification surface.
type Notification struct {
	Title   string
	Subtext string
	Ongoing bool
}

// Publisher is the notification surface sink. Implementations must tolerate
// being called from arbitrary goroutines.
type Publisher interface {
	Publish(Notification)
}

// Throttler decouples the high-frequency internal status stream from a
// rate-ceilinged notification surface. The policy is debounce with a trailing
// edge: publish immediately when the minimum interval has elapsed, otherwise
// arm exactly one deferred publish carrying the newest value. Successive
// publishes are never closer than the minimum interval, and the most recent
// value is always shown within one interval.
type Throttler struct {
	pub     Publisher
	limiter *rate.Limiter

	mu      sync.Mutex
	latest  Notification
	timer   *time.Timer
	stopped bool
}

// NewThrottler creates a throttler publishing to pub at most once per minInterval.
func NewThrottler(pub Publisher, minInterval time.Duration) *Throttler {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &Throttler{
		pub:     pub,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Offer submits the newest notification value. Bursts collapse into a single
// trailing publish; dropped intermediate values are intentional, stale values
// are not.
func (t *Throttler) Offer(n Notification) {
	t.mu.Lock()
	t.latest = n

	if t.stopped {
		t.mu.Unlock()
		return
	}

	if t.timer != nil {
		// A trailing publish is already armed; it will carry this newer value.
		t.mu.Unlock()
		return
	}

	if t.limiter.Allow() {
		t.mu.Unlock()
		t.pub.Publish(n)
		return
	}

	// The reservation consumes the next token, so the trailing publish keeps
	// the pacing contract without further bookkeeping.
	delay := t.limiter.Reserve().Delay()
	t.timer = time.AfterFunc(delay, t.fireTrailing)
	t.mu.Unlock()
}

func (t *Throttler) fireTrailing() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped {
		t.mu.Unlock()
		return
	}
	n := t.latest
	t.mu.Unlock()

	t.pub.Publish(n)
}

// Stop cancels any pending trailing publish and silences the throttler.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
