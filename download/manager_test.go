package download

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/source"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func downloadEpisode(id, audioURL string) *source.Episode {
	return &source.Episode{
		ID:        id,
		PodcastID: "pod-1",
		Title:     "Episode " + id,
		AudioURL:  audioURL,
		Podcast:   &source.Podcast{ID: "pod-1", Title: "Test Podcast"},
	}
}

func managerFixture() (*Manager, *library.Library) {
	filesystem.SetMemMapFs()
	lib := library.New()
	return NewManager(lib), lib
}

func awaitStatus(lib library.Store, episodeID string, want library.DownloadStatus) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		row, ok, err := lib.DownloadRow(episodeID)
		if err == nil && ok && row.Status == want {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestManagerToggle(t *testing.T) {
	payload := strings.Repeat("audio-bytes-", 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	Convey("Given a coordinator over a fresh library", t, func() {
		manager, lib := managerFixture()
		defer manager.Close()

		episode := downloadEpisode("ep-1", server.URL+"/ep-1.mp3")
		So(lib.SaveEpisode(episode), ShouldBeNil)

		Convey("Toggling an undownloaded episode completes a download", func() {
			So(manager.Toggle(episode), ShouldBeNil)
			So(awaitStatus(lib, "ep-1", library.DownloadCompleted), ShouldBeTrue)

			row, ok, err := lib.DownloadRow("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(row.DownloadedBytes, ShouldEqual, int64(len(payload)))
			So(row.FileSize.MustGet(), ShouldEqual, int64(len(payload)))
			So(row.DownloadedAt, ShouldNotBeNil)

			Convey("And the row bytes match the file on disk", func() {
				info, err := filesystem.API().Stat(row.FilePath)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldEqual, row.DownloadedBytes)
			})

			Convey("And the episode resolves to its verified local file", func() {
				path, ok := manager.LocalFilePath("ep-1")
				So(ok, ShouldBeTrue)
				So(path, ShouldEqual, row.FilePath)
				So(manager.IsDownloaded("ep-1"), ShouldBeTrue)
			})

			Convey("And toggling again removes the file and the row", func() {
				So(manager.Toggle(episode), ShouldBeNil)

				exists, _ := filesystem.API().Exists(row.FilePath)
				So(exists, ShouldBeFalse)

				_, ok, err := lib.DownloadRow("ep-1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("A file deleted out of band stops being trusted", func() {
			So(manager.Toggle(episode), ShouldBeNil)
			So(awaitStatus(lib, "ep-1", library.DownloadCompleted), ShouldBeTrue)

			row, _, _ := lib.DownloadRow("ep-1")
			So(filesystem.API().Remove(row.FilePath), ShouldBeNil)

			So(manager.IsDownloaded("ep-1"), ShouldBeFalse)
			_, ok := manager.LocalFilePath("ep-1")
			So(ok, ShouldBeFalse)
		})

		Convey("A failed download can be retried", func() {
			broken := downloadEpisode("ep-2", "ftp://example.com/ep-2.mp3")
			So(lib.SaveEpisode(broken), ShouldBeNil)

			So(manager.Toggle(broken), ShouldBeNil)
			So(awaitStatus(lib, "ep-2", library.DownloadFailed), ShouldBeTrue)

			broken.AudioURL = server.URL + "/ep-2.mp3"
			So(lib.SaveEpisode(broken), ShouldBeNil)

			So(manager.Retry(broken), ShouldBeNil)
			So(awaitStatus(lib, "ep-2", library.DownloadCompleted), ShouldBeTrue)
		})
	})
}

func TestManagerCancellation(t *testing.T) {
	// Serves one chunk and then stalls until the client goes away.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	Convey("Given a download stalled mid-transfer", t, func() {
		manager, lib := managerFixture()
		defer manager.Close()

		episode := downloadEpisode("ep-1", server.URL+"/ep-1.mp3")
		So(lib.SaveEpisode(episode), ShouldBeNil)

		So(manager.Toggle(episode), ShouldBeNil)
		So(awaitStatus(lib, "ep-1", library.DownloadInProgress), ShouldBeTrue)

		Convey("Toggling again cancels it and removes the partial file", func() {
			So(manager.Toggle(episode), ShouldBeNil)
			So(awaitStatus(lib, "ep-1", library.DownloadCancelled), ShouldBeTrue)

			row, _, _ := lib.DownloadRow("ep-1")
			So(row.DownloadedBytes, ShouldEqual, int64(0))

			exists, _ := filesystem.API().Exists(row.FilePath)
			So(exists, ShouldBeFalse)

			Convey("And a cancelled row can be toggled back into a fresh download", func() {
				So(manager.Toggle(episode), ShouldBeNil)
				So(awaitStatus(lib, "ep-1", library.DownloadInProgress), ShouldBeTrue)
			})
		})
	})
}

func TestManagerReconcile(t *testing.T) {
	Convey("Given a row left in-progress by a crashed run", t, func() {
		manager, lib := managerFixture()
		defer manager.Close()

		episode := downloadEpisode("ep-1", "https://example.com/ep-1.mp3")
		So(lib.SaveEpisode(episode), ShouldBeNil)

		stale := &library.Download{
			EpisodeID:       "ep-1",
			FilePath:        "",
			Status:          library.DownloadInProgress,
			DownloadedBytes: 4096,
		}
		So(lib.SaveDownload(stale), ShouldBeNil)

		Convey("Reconcile settles it as cancelled", func() {
			So(manager.Reconcile(), ShouldBeNil)

			row, ok, err := lib.DownloadRow("ep-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(row.Status, ShouldEqual, library.DownloadCancelled)
			So(row.DownloadedBytes, ShouldEqual, int64(0))
		})

		Convey("Terminal rows are left untouched", func() {
			stale.Status = library.DownloadFailed
			stale.ErrorMessage = "no route to host"
			So(lib.SaveDownload(stale), ShouldBeNil)

			So(manager.Reconcile(), ShouldBeNil)

			row, _, _ := lib.DownloadRow("ep-1")
			So(row.Status, ShouldEqual, library.DownloadFailed)
			So(row.ErrorMessage, ShouldEqual, "no route to host")
		})
	})
}

func TestManagerValidation(t *testing.T) {
	Convey("Given an episode with a non-http source locator", t, func() {
		manager, lib := managerFixture()
		defer manager.Close()

		episode := downloadEpisode("ep-1", "ftp://example.com/ep-1.mp3")
		So(lib.SaveEpisode(episode), ShouldBeNil)

		Convey("The download fails before touching the filesystem", func() {
			So(manager.Toggle(episode), ShouldBeNil)
			So(awaitStatus(lib, "ep-1", library.DownloadFailed), ShouldBeTrue)

			row, _, _ := lib.DownloadRow("ep-1")
			So(row.ErrorMessage, ShouldEqual, "invalid URL")

			exists, _ := filesystem.API().Exists(row.FilePath)
			So(exists, ShouldBeFalse)
		})
	})
}

func TestManagerEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	Convey("Given a server that returns an empty body", t, func() {
		manager, lib := managerFixture()
		defer manager.Close()

		episode := downloadEpisode("ep-1", server.URL+"/ep-1.mp3")
		So(lib.SaveEpisode(episode), ShouldBeNil)

		Convey("The download fails the integrity check", func() {
			So(manager.Toggle(episode), ShouldBeNil)
			So(awaitStatus(lib, "ep-1", library.DownloadFailed), ShouldBeTrue)

			row, _, _ := lib.DownloadRow("ep-1")
			So(row.ErrorMessage, ShouldEqual, "empty file")

			exists, _ := filesystem.API().Exists(row.FilePath)
			So(exists, ShouldBeFalse)
		})
	})
}
