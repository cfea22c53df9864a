package download

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/log"
	"github.com/castor-cli/castor/network"
	"github.com/castor-cli/castor/source"
	"github.com/samber/mo"
)

const (
	// chunkSize is the transfer copy granularity. Cancellation latency is
	// bounded by the time to read one chunk.
	chunkSize = 8 * 1024

	// persistThreshold coalesces progress row writes so the store is not
	// hammered once per chunk.
	persistThreshold = 100 * 1024
)

// run performs one download transfer from start to a terminal row state.
// It is the only writer of the episode's row while it runs.
func (m *Manager) run(ctx context.Context, episode *source.Episode, row *library.Download) {
	// An invalid locator fails before any filesystem or network activity.
	if err := network.ValidateURL(episode.AudioURL); err != nil {
		m.fail(row, "invalid URL")
		return
	}

	stream, err := network.Open(ctx, episode.AudioURL, nil)
	if err != nil {
		if ctx.Err() != nil {
			m.cancelled(row)
			return
		}
		m.fail(row, err.Error())
		return
	}
	defer func() {
		_ = stream.Body.Close()
	}()

	if size, ok := stream.ContentLength.Get(); ok && size > 0 {
		row.FileSize = stream.ContentLength
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(row.FilePath), 0o755); err != nil {
		m.fail(row, err.Error())
		return
	}

	file, err := fs.Create(row.FilePath)
	if err != nil {
		m.fail(row, err.Error())
		return
	}

	row.Status = library.DownloadInProgress
	row.DownloadedBytes = 0
	m.persist(row)

	var written, unsaved int64
	buf := make([]byte, chunkSize)

	for {
		if ctx.Err() != nil {
			_ = file.Close()
			m.removeFile(row.FilePath)
			m.cancelled(row)
			return
		}

		n, readErr := stream.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				_ = file.Close()
				m.removeFile(row.FilePath)
				m.fail(row, writeErr.Error())
				return
			}
			written += int64(n)
			unsaved += int64(n)

			if unsaved >= persistThreshold {
				row.DownloadedBytes = written
				m.persist(row)
				unsaved = 0
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			_ = file.Close()
			m.removeFile(row.FilePath)
			if ctx.Err() != nil {
				m.cancelled(row)
				return
			}
			m.fail(row, readErr.Error())
			return
		}
	}

	if err := file.Close(); err != nil {
		m.removeFile(row.FilePath)
		m.fail(row, err.Error())
		return
	}

	// A zero-byte transfer is never a valid episode.
	if written == 0 {
		m.removeFile(row.FilePath)
		m.fail(row, "empty file")
		return
	}

	now := time.Now()
	row.Status = library.DownloadCompleted
	row.DownloadedBytes = written
	// The actual byte count wins over the advertised length.
	row.FileSize = mo.Some(written)
	row.ErrorMessage = ""
	row.DownloadedAt = &now
	m.persist(row)

	log.Infof("download completed for episode %q (%d bytes)", episode.ID, written)
}

// fail records a terminal failure row.
func (m *Manager) fail(row *library.Download, message string) {
	row.Status = library.DownloadFailed
	row.ErrorMessage = message
	m.persist(row)
	log.Warnf("download failed for episode %q: %s", row.EpisodeID, message)
}

// cancelled records a terminal cancellation row.
func (m *Manager) cancelled(row *library.Download) {
	row.Status = library.DownloadCancelled
	row.DownloadedBytes = 0
	row.ErrorMessage = ""
	m.persist(row)
	log.Infof("download cancelled for episode %q", row.EpisodeID)
}

// persist writes the row and fans it out; a vanished episode makes the write a logged no-op.
func (m *Manager) persist(row *library.Download) {
	if err := m.lib.SaveDownload(row); err != nil {
		if errors.Is(err, library.ErrUnknownEpisode) {
			log.Warnf("download row for unknown episode %q dropped", row.EpisodeID)
			return
		}
		log.Errorf("persist download row for %q: %v", row.EpisodeID, err)
		return
	}
	m.publish(row)
}
