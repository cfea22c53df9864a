package playback

import (
	"testing"

	"github.com/castor-cli/castor/source"
	. "github.com/smartystreets/goconvey/convey"
)

func queuedEpisode(id string) *source.Episode {
	return &source.Episode{ID: id, PodcastID: "pod-1", Title: "Episode " + id}
}

func TestQueue(t *testing.T) {
	Convey("Given an empty queue", t, func() {
		var q Queue

		Convey("It reports empty and pops nil", func() {
			So(q.IsEmpty(), ShouldBeTrue)
			So(q.PopFront(), ShouldBeNil)
		})

		Convey("Enqueued episodes pop in insertion order", func() {
			q.Enqueue(queuedEpisode("a"))
			q.Enqueue(queuedEpisode("b"))
			q.Enqueue(queuedEpisode("c"))

			So(q.Len(), ShouldEqual, 3)
			So(q.PopFront().ID, ShouldEqual, "a")
			So(q.PopFront().ID, ShouldEqual, "b")
			So(q.PopFront().ID, ShouldEqual, "c")
			So(q.IsEmpty(), ShouldBeTrue)
		})

		Convey("Remove deletes only the first match and keeps order", func() {
			q.Enqueue(queuedEpisode("a"))
			q.Enqueue(queuedEpisode("b"))
			q.Enqueue(queuedEpisode("a"))

			So(q.Remove("a"), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 2)
			So(q.PopFront().ID, ShouldEqual, "b")
			So(q.PopFront().ID, ShouldEqual, "a")

			So(q.Remove("missing"), ShouldBeFalse)
		})

		Convey("Items returns a copy detached from the queue", func() {
			q.Enqueue(queuedEpisode("a"))
			items := q.Items()
			q.Clear()

			So(len(items), ShouldEqual, 1)
			So(q.IsEmpty(), ShouldBeTrue)
		})
	})
}
