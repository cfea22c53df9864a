package playback

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []Notification
	stamps    []time.Time
}

func (p *recordingPublisher) Publish(n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
	p.stamps = append(p.stamps, time.Now())
}

func (p *recordingPublisher) snapshot() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notification(nil), p.published...)
}

func TestThrottler(t *testing.T) {
	const interval = 50 * time.Millisecond

	Convey("Given a throttler with a minimum interval", t, func() {
		pub := &recordingPublisher{}
		throttler := NewThrottler(pub, interval)

		Convey("The first offer publishes immediately", func() {
			throttler.Offer(Notification{Title: "one"})

			published := pub.snapshot()
			So(len(published), ShouldEqual, 1)
			So(published[0].Title, ShouldEqual, "one")
		})

		Convey("A burst collapses into one trailing publish carrying the newest value", func() {
			throttler.Offer(Notification{Title: "one"})
			throttler.Offer(Notification{Title: "two"})
			throttler.Offer(Notification{Title: "three"})

			So(len(pub.snapshot()), ShouldEqual, 1)

			time.Sleep(2 * interval)

			published := pub.snapshot()
			So(len(published), ShouldEqual, 2)
			So(published[1].Title, ShouldEqual, "three")
		})

		Convey("Successive publishes are never closer than the interval", func() {
			for i := 0; i < 10; i++ {
				throttler.Offer(Notification{Title: "tick"})
				time.Sleep(interval / 5)
			}
			time.Sleep(2 * interval)

			pub.mu.Lock()
			stamps := append([]time.Time(nil), pub.stamps...)
			pub.mu.Unlock()

			So(len(stamps), ShouldBeGreaterThan, 1)
			for i := 1; i < len(stamps); i++ {
				So(stamps[i].Sub(stamps[i-1]), ShouldBeGreaterThanOrEqualTo, interval-5*time.Millisecond)
			}
		})

		Convey("Stop cancels the pending trailing publish", func() {
			throttler.Offer(Notification{Title: "one"})
			throttler.Offer(Notification{Title: "two"})
			throttler.Stop()

			time.Sleep(2 * interval)

			So(len(pub.snapshot()), ShouldEqual, 1)

			throttler.Offer(Notification{Title: "after stop"})
			So(len(pub.snapshot()), ShouldEqual, 1)
		})
	})
}
