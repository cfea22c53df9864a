// Package cmd implements the command-line interface for castor.
package cmd

import (
	"fmt"
	"strings"

	"github.com/castor-cli/castor/color"
	"github.com/castor-cli/castor/download"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/style"
	"github.com/castor-cli/castor/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().BoolP("cancel", "c", false, "Cancel the active download for the given episodes")
	downloadCmd.Flags().BoolP("delete", "d", false, "Delete the completed download for the given episodes")
	downloadCmd.Flags().BoolP("retry", "r", false, "Retry the failed or cancelled download for the given episodes")
	downloadCmd.MarkFlagsMutuallyExclusive("cancel", "delete", "retry")
}

// downloadCmd manages offline copies of episode audio.
var downloadCmd = &cobra.Command{
	Use:   "download [episode-id...]",
	Short: "Download episode audio for offline playback",
	Long: `Download episode audio into the localized downloads directory.
Without flags, each id toggles its download: absent or failed starts one,
active cancels it, completed removes it.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			cancel = lo.Must(cmd.Flags().GetBool("cancel"))
			remove = lo.Must(cmd.Flags().GetBool("delete"))
			retry  = lo.Must(cmd.Flags().GetBool("retry"))
		)

		lib := library.New()
		manager := download.NewManager(lib)
		defer manager.Close()
		handleErr(manager.Reconcile())

		updates := manager.Subscribe()

		pending := make(map[string]struct{})
		for _, id := range args {
			episode, ok, err := lib.Episode(id)
			handleErr(err)
			if !ok {
				handleErr(fmt.Errorf("episode %q is not in the library", id))
			}

			switch {
			case cancel:
				handleErr(manager.Cancel(id))
			case remove:
				handleErr(manager.Delete(id))
			case retry:
				handleErr(manager.Retry(episode))
				pending[id] = struct{}{}
			default:
				handleErr(manager.Toggle(episode))
				if !manager.IsDownloaded(id) {
					if row, ok, _ := lib.DownloadRow(id); ok && !row.Status.Terminal() {
						pending[id] = struct{}{}
					}
				}
			}
		}

		if len(pending) == 0 {
			return
		}

		erase := func() {}
		for row := range updates {
			if _, tracked := pending[row.EpisodeID]; !tracked {
				continue
			}

			erase()
			erase = util.PrintErasable(progressLine(row))

			if row.Status.Terminal() {
				erase()
				printOutcome(row)
				delete(pending, row.EpisodeID)
				if len(pending) == 0 {
					return
				}
			}
		}
	},
}

// progressLine renders one download row as a terminal progress bar.
func progressLine(row *library.Download) string {
	width, _, err := util.TerminalSize()
	if err != nil || width > 80 {
		width = 80
	}

	barWidth := width - len(row.EpisodeID) - 12
	if barWidth < 10 {
		barWidth = 10
	}

	size, known := row.FileSize.Get()
	if !known || size <= 0 {
		return fmt.Sprintf("%s %s", row.EpisodeID, util.Quantify(int(row.DownloadedBytes/1024), "KiB", "KiB"))
	}

	filled := int(float64(barWidth) * float64(row.DownloadedBytes) / float64(size))
	if filled > barWidth {
		filled = barWidth
	}

	bar := style.Fg(color.Green)(strings.Repeat("█", filled)) +
		style.Faint(strings.Repeat("░", barWidth-filled))

	return fmt.Sprintf("%s %s %3.0f%%", row.EpisodeID, bar, float64(row.DownloadedBytes)/float64(size)*100)
}

func printOutcome(row *library.Download) {
	switch row.Status {
	case library.DownloadCompleted:
		fmt.Printf("%s %s downloaded to %s\n",
			style.Fg(color.Green)("✓"), row.EpisodeID, style.Faint(row.FilePath))
	case library.DownloadCancelled:
		fmt.Printf("%s %s cancelled\n", style.Fg(color.Yellow)("•"), row.EpisodeID)
	case library.DownloadFailed:
		fmt.Printf("%s %s failed: %s\n", style.Fg(color.Red)("✗"), row.EpisodeID, row.ErrorMessage)
	}
}
