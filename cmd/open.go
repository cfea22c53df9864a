// Package cmd implements the command-line interface for castor.
package cmd

import (
	"fmt"

	"github.com/castor-cli/castor/download"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/open"
	"github.com/castor-cli/castor/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolP("downloads", "d", false, "Open the downloads directory instead of an episode")
	openCmd.Flags().StringP("app", "a", "", "Open with a specific application instead of the system default")
}

// openCmd hands an episode's audio (local file preferred) to the system handler.
var openCmd = &cobra.Command{
	Use:   "open [episode-id]",
	Short: "Open an episode's audio or the downloads directory with the system handler",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := lo.Must(cmd.Flags().GetString("app"))

		if lo.Must(cmd.Flags().GetBool("downloads")) {
			handleErr(open.StartWith(where.Downloads(), app))
			return
		}

		if len(args) == 0 {
			handleErr(fmt.Errorf("an episode id or --downloads is required"))
		}

		lib := library.New()
		episode, ok, err := lib.Episode(args[0])
		handleErr(err)
		if !ok {
			handleErr(fmt.Errorf("episode %q is not in the library", args[0]))
		}

		manager := download.NewManager(lib)
		defer manager.Close()

		target := episode.AudioURL
		if path, ok := manager.LocalFilePath(episode.ID); ok {
			target = path
		}

		handleErr(open.StartWith(target, app))
	},
}
