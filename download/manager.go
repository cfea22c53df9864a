// Package download implements the download coordinator: the single owner of
// offline-copy state. It serializes intent per episode, spawns one transfer
// worker per active download, keeps the durable rows in sync with the bytes on
// disk, and verifies files before anyone trusts them.
package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/log"
	"github.com/castor-cli/castor/source"
	"github.com/castor-cli/castor/util"
	"github.com/castor-cli/castor/where"
)

// titleFilenameLimit bounds the sanitized title segment of a download path.
const titleFilenameLimit = 60

// Manager coordinates download jobs and owns every mutation of download rows
// and audio files. At most one job runs per episode.
type Manager struct {
	lib library.Store

	mu   sync.Mutex
	jobs map[string]*job
	subs []chan *library.Download
}

// job is one running transfer worker.
type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a coordinator over the given store.
func NewManager(lib library.Store) *Manager {
	return &Manager{
		lib:  lib,
		jobs: map[string]*job{},
	}
}

// Toggle flips the download state of an episode:
// absent or failed or cancelled starts a fresh download, pending or running
// cancels it, completed removes the file and the row.
func (m *Manager) Toggle(episode *source.Episode) error {
	row, ok, err := m.lib.DownloadRow(episode.ID)
	if err != nil {
		return fmt.Errorf("read download row: %w", err)
	}

	if !ok || row.Status == library.DownloadFailed || row.Status == library.DownloadCancelled {
		return m.start(episode)
	}

	switch row.Status {
	case library.DownloadPending, library.DownloadInProgress:
		return m.Cancel(episode.ID)
	case library.DownloadCompleted:
		return m.Delete(episode.ID)
	}

	return nil
}

// start registers a pending row and spawns the transfer worker.
func (m *Manager) start(episode *source.Episode) error {
	m.mu.Lock()
	if _, running := m.jobs[episode.ID]; running {
		m.mu.Unlock()
		return nil
	}

	path := m.filePath(episode)
	row := &library.Download{
		EpisodeID: episode.ID,
		FilePath:  path,
		Status:    library.DownloadPending,
	}

	if err := m.lib.SaveDownload(row); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("register download: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[episode.ID] = j
	m.mu.Unlock()

	m.publish(row)
	log.Infof("download started for episode %q into %s", episode.ID, path)

	go func() {
		defer close(j.done)
		defer cancel()

		m.run(ctx, episode, row)

		m.mu.Lock()
		delete(m.jobs, episode.ID)
		m.mu.Unlock()
	}()

	return nil
}

// Cancel stops a pending or running download, removes the partial file, and
// records the cancelled row. Cancelling an episode with no active download is a no-op.
func (m *Manager) Cancel(episodeID string) error {
	m.mu.Lock()
	j, running := m.jobs[episodeID]
	m.mu.Unlock()

	if running {
		j.cancel()
		<-j.done
		return nil
	}

	// The worker is gone (crash or restart) but the row may still claim
	// activity; settle it here.
	row, ok, err := m.lib.DownloadRow(episodeID)
	if err != nil || !ok || row.Status.Terminal() {
		return err
	}

	m.removeFile(row.FilePath)
	row.Status = library.DownloadCancelled
	row.DownloadedBytes = 0
	if err := m.lib.SaveDownload(row); err != nil {
		return fmt.Errorf("record cancellation: %w", err)
	}
	m.publish(row)
	return nil
}

// Retry restarts a failed or cancelled download from scratch.
func (m *Manager) Retry(episode *source.Episode) error {
	row, ok, err := m.lib.DownloadRow(episode.ID)
	if err != nil {
		return err
	}
	if ok && row.Status != library.DownloadFailed && row.Status != library.DownloadCancelled {
		return fmt.Errorf("episode %q is not in a retryable state", episode.ID)
	}
	return m.start(episode)
}

// Delete removes a completed download: the audio file first, then the row.
func (m *Manager) Delete(episodeID string) error {
	row, ok, err := m.lib.DownloadRow(episodeID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	m.removeFile(row.FilePath)
	if err := m.lib.DeleteDownloadRow(episodeID); err != nil {
		return fmt.Errorf("delete download row: %w", err)
	}

	log.Infof("download deleted for episode %q", episodeID)
	return nil
}

// IsDownloaded reports whether a verified offline copy exists: the row must be
// completed and the file must still be present and non-empty. The row alone is
// never trusted since files can vanish out of band.
func (m *Manager) IsDownloaded(episodeID string) bool {
	_, ok := m.LocalFilePath(episodeID)
	return ok
}

// LocalFilePath returns the verified local audio path for an episode.
func (m *Manager) LocalFilePath(episodeID string) (string, bool) {
	row, ok, err := m.lib.DownloadRow(episodeID)
	if err != nil || !ok || row.Status != library.DownloadCompleted {
		return "", false
	}

	info, err := filesystem.API().Stat(row.FilePath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}

	return row.FilePath, true
}

// Subscribe returns a stream of download row changes. Slow subscribers miss
// intermediate updates rather than blocking workers.
func (m *Manager) Subscribe() <-chan *library.Download {
	ch := make(chan *library.Download, 16)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Close cancels every running job and waits for the workers to settle.
func (m *Manager) Close() {
	m.mu.Lock()
	jobs := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
	}
	for _, j := range jobs {
		<-j.done
	}
}

// filePath derives the deterministic on-disk location for an episode.
func (m *Manager) filePath(episode *source.Episode) string {
	name := fmt.Sprintf("%s_%s.mp3",
		episode.ID,
		util.SanitizeFilename(util.TruncateString(episode.Title, titleFilenameLimit)),
	)
	return filepath.Join(where.Downloads(), util.SanitizeFilename(episode.PodcastID), name)
}

// removeFile unlinks a download artifact, refusing paths outside the managed
// downloads root.
func (m *Manager) removeFile(path string) {
	if path == "" {
		return
	}

	root := where.Downloads()
	cleaned := filepath.Clean(path)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		log.Warnf("refusing to delete %q outside the downloads root", path)
		return
	}

	if err := filesystem.API().Remove(cleaned); err != nil {
		log.Warnf("remove %q: %v", cleaned, err)
	}
}

func (m *Manager) publish(row *library.Download) {
	copied := *row
	m.mu.Lock()
	subs := m.subs
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- &copied:
		default:
		}
	}
}
