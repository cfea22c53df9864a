package download

import (
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/log"
)

// Reconcile settles download rows left behind by a previous process: any row
// still claiming pending or in-progress state with no running worker belongs
// to a crashed run. Its partial file is removed and the row is marked
// cancelled so a later toggle starts cleanly.
func (m *Manager) Reconcile() error {
	rows, err := m.lib.AllDownloads()
	if err != nil {
		return err
	}

	for id, row := range rows {
		if row.Status.Terminal() {
			continue
		}

		m.mu.Lock()
		_, running := m.jobs[id]
		m.mu.Unlock()
		if running {
			continue
		}

		m.removeFile(row.FilePath)
		row.Status = library.DownloadCancelled
		row.DownloadedBytes = 0
		if err := m.lib.SaveDownload(row); err != nil {
			log.Warnf("reconcile download row for %q: %v", id, err)
			continue
		}

		log.Infof("settled stale download row for episode %q", id)
	}

	return nil
}
