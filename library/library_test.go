package library

import (
	"testing"
	"time"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func testEpisode(id string) *source.Episode {
	return &source.Episode{
		ID:        id,
		PodcastID: "pod-1",
		Title:     "Episode " + id,
		AudioURL:  "https://example.com/" + id + ".mp3",
		Podcast: &source.Podcast{
			ID:    "pod-1",
			Title: "Test Podcast",
		},
	}
}

func TestEpisodeRegistry(t *testing.T) {
	Convey("Given a fresh library", t, func() {
		filesystem.SetMemMapFs()
		lib := New()

		Convey("Unknown episodes are absent, not errors", func() {
			_, ok, err := lib.Episode("nope")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Materializing an episode also materializes its podcast", func() {
			So(lib.SaveEpisode(testEpisode("ep-1")), ShouldBeNil)

			ep, ok, err := lib.Episode("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(ep.Title, ShouldEqual, "Episode ep-1")

			title, ok, err := lib.PodcastTitle("pod-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(title, ShouldEqual, "Test Podcast")
		})

		Convey("Materializing twice keeps a single row", func() {
			So(lib.SaveEpisode(testEpisode("ep-1")), ShouldBeNil)
			So(lib.SaveEpisode(testEpisode("ep-1")), ShouldBeNil)

			episodes, err := lib.Episodes()
			So(err, ShouldBeNil)
			So(len(episodes), ShouldEqual, 1)
		})
	})
}

func TestProgressRows(t *testing.T) {
	Convey("Given a library with a materialized episode", t, func() {
		filesystem.SetMemMapFs()
		lib := New()
		So(lib.SaveEpisode(testEpisode("ep-1")), ShouldBeNil)

		Convey("SaveProgress upserts a single row per episode", func() {
			now := time.Now()
			So(lib.SaveProgress(&Progress{
				EpisodeID:       "ep-1",
				PositionSeconds: 10,
				DurationSeconds: mo.Some(600),
				LastPlayedAt:    &now,
				Speed:           1.25,
			}), ShouldBeNil)
			So(lib.SaveProgress(&Progress{
				EpisodeID:       "ep-1",
				PositionSeconds: 42,
				DurationSeconds: mo.Some(600),
				LastPlayedAt:    &now,
				Speed:           1.25,
			}), ShouldBeNil)

			rows, err := lib.AllProgress()
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)

			row, ok, err := lib.Progress("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(row.PositionSeconds, ShouldEqual, 42)
			So(row.Speed, ShouldEqual, 1.25)
		})

		Convey("Writes for unregistered episodes fail with ErrUnknownEpisode", func() {
			err := lib.SaveProgress(&Progress{EpisodeID: "ghost"})
			So(err, ShouldEqual, ErrUnknownEpisode)
		})

		Convey("MarkCompleted sets the completion timestamp exactly once", func() {
			So(lib.MarkCompleted("ep-1"), ShouldBeNil)
			row, _, err := lib.Progress("ep-1")
			So(err, ShouldBeNil)
			So(row.IsCompleted, ShouldBeTrue)
			So(row.CompletedAt, ShouldNotBeNil)
			first := *row.CompletedAt

			So(lib.MarkCompleted("ep-1"), ShouldBeNil)
			row, _, _ = lib.Progress("ep-1")
			So(row.CompletedAt.Equal(first), ShouldBeTrue)
		})

		Convey("A position write never clears completion", func() {
			So(lib.MarkCompleted("ep-1"), ShouldBeNil)
			So(lib.SaveProgress(&Progress{EpisodeID: "ep-1", PositionSeconds: 3}), ShouldBeNil)

			row, _, err := lib.Progress("ep-1")
			So(err, ShouldBeNil)
			So(row.IsCompleted, ShouldBeTrue)
			So(row.PositionSeconds, ShouldEqual, 3)
		})
	})
}

func TestDownloadRows(t *testing.T) {
	Convey("Given a library with a materialized episode", t, func() {
		filesystem.SetMemMapFs()
		lib := New()
		So(lib.SaveEpisode(testEpisode("ep-1")), ShouldBeNil)

		Convey("Download rows round-trip through the registry", func() {
			So(lib.SaveDownload(&Download{
				EpisodeID: "ep-1",
				FilePath:  "/downloads/pod-1/ep-1_Episode.mp3",
				Status:    DownloadPending,
			}), ShouldBeNil)

			row, ok, err := lib.DownloadRow("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(row.Status, ShouldEqual, DownloadPending)
			So(row.FileSize.IsAbsent(), ShouldBeTrue)
		})

		Convey("DeleteDownloadRow removes the row", func() {
			So(lib.SaveDownload(&Download{EpisodeID: "ep-1", Status: DownloadPending}), ShouldBeNil)
			So(lib.DeleteDownloadRow("ep-1"), ShouldBeNil)

			_, ok, err := lib.DownloadRow("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("DeleteEpisode cascades to progress and download rows", func() {
			So(lib.SaveProgress(&Progress{EpisodeID: "ep-1", PositionSeconds: 9}), ShouldBeNil)
			So(lib.SaveDownload(&Download{EpisodeID: "ep-1", Status: DownloadCompleted}), ShouldBeNil)
			So(lib.DeleteEpisode("ep-1"), ShouldBeNil)

			_, ok, _ := lib.Progress("ep-1")
			So(ok, ShouldBeFalse)
			_, ok, _ = lib.DownloadRow("ep-1")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestDownloadStatusTerminal(t *testing.T) {
	Convey("DownloadStatus.Terminal", t, func() {
		So(DownloadCompleted.Terminal(), ShouldBeTrue)
		So(DownloadFailed.Terminal(), ShouldBeTrue)
		So(DownloadCancelled.Terminal(), ShouldBeTrue)
		So(DownloadPending.Terminal(), ShouldBeFalse)
		So(DownloadInProgress.Terminal(), ShouldBeFalse)
	})
}
