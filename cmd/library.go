// Package cmd implements the command-line interface for castor.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/castor-cli/castor/color"
	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/source"
	"github.com/castor-cli/castor/style"
	"github.com/castor-cli/castor/util"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(libraryCmd)
}

// libraryCmd serves as the parent command for the localized episode library.
var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Inspect and manage the localized episode library",
}

func init() {
	libraryCmd.AddCommand(libraryListCmd)
	libraryListCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	libraryListCmd.SetOut(os.Stdout)
}

// libraryListCmd lists materialized episodes with their progress and download state.
var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the episodes in the library with progress and download state",
	Run: func(cmd *cobra.Command, args []string) {
		lib := library.New()

		episodes, err := lib.Episodes()
		handleErr(err)
		progress, err := lib.AllProgress()
		handleErr(err)
		downloads, err := lib.AllDownloads()
		handleErr(err)

		ids := lo.Keys(episodes)
		sort.Strings(ids)

		if lo.Must(cmd.Flags().GetBool("json")) {
			type entry struct {
				Episode  *source.Episode   `json:"episode"`
				Progress *library.Progress `json:"progress,omitempty"`
				Download *library.Download `json:"download,omitempty"`
			}

			out := make([]entry, 0, len(ids))
			for _, id := range ids {
				out = append(out, entry{
					Episode:  episodes[id],
					Progress: progress[id],
					Download: downloads[id],
				})
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(out))
			return
		}

		if len(ids) == 0 {
			cmd.Println("library is empty")
			return
		}

		for _, id := range ids {
			episode := episodes[id]
			line := fmt.Sprintf("%s %s",
				style.Fg(color.Purple)(id),
				style.Bold(util.TruncateString(episode.Title, 60)),
			)

			var marks []string
			if row, ok := progress[id]; ok {
				if row.IsCompleted {
					marks = append(marks, style.Fg(color.Green)("played"))
				} else {
					marks = append(marks, style.Fg(color.Yellow)(util.FormatClock(row.PositionSeconds)))
				}
			}
			if row, ok := downloads[id]; ok {
				marks = append(marks, style.Faint(strings.ToLower(string(row.Status))))
			}

			if len(marks) > 0 {
				line += "  " + strings.Join(marks, " ")
			}

			cmd.Println(line)
		}
	},
}

func init() {
	libraryCmd.AddCommand(libraryImportCmd)
	libraryImportCmd.Flags().StringP("file", "f", "", "Read episode JSON from a file instead of stdin")
}

// libraryImportCmd materializes episodes from a JSON document.
var libraryImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Materialize episodes into the library from an episode JSON document",
	Long: `Materialize episodes into the library from a JSON document holding either a
single episode object or an array of them, as produced by an external feed
resolver. Episodes must carry an id, a podcast id, and an audio URL.`,
	Run: func(cmd *cobra.Command, args []string) {
		var raw []byte
		var err error

		if path := lo.Must(cmd.Flags().GetString("file")); path != "" {
			raw, err = filesystem.API().ReadFile(path)
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		handleErr(err)

		var episodes []*source.Episode
		if err := json.Unmarshal(raw, &episodes); err != nil {
			var single source.Episode
			handleErr(json.Unmarshal(raw, &single))
			episodes = []*source.Episode{&single}
		}

		lib := library.New()
		for _, episode := range episodes {
			if episode.ID == "" || episode.PodcastID == "" {
				handleErr(fmt.Errorf("episode %q is missing an id or podcast id", episode.Title))
			}

			handleErr(lib.SaveEpisode(episode))
		}

		fmt.Printf("%s imported %s\n",
			style.Fg(color.Green)("✓"),
			util.Quantify(len(episodes), "episode", "episodes"),
		)
	},
}

func init() {
	libraryCmd.AddCommand(libraryRemoveCmd)
}

// libraryRemoveCmd deletes episodes and their dependent rows.
var libraryRemoveCmd = &cobra.Command{
	Use:   "remove [episode-id...]",
	Short: "Remove episodes from the library along with their progress and download rows",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lib := library.New()

		for _, id := range args {
			handleErr(lib.DeleteEpisode(id))
		}

		fmt.Printf("%s removed %s\n",
			style.Fg(color.Green)("✓"),
			util.Quantify(len(args), "episode", "episodes"),
		)
	},
}

func init() {
	libraryCmd.AddCommand(librarySchemaCmd)
	librarySchemaCmd.Flags().BoolP("progress", "p", false, "Generate the JSON Schema for progress rows")
	librarySchemaCmd.Flags().BoolP("download", "d", false, "Generate the JSON Schema for download rows")
	librarySchemaCmd.MarkFlagsMutuallyExclusive("progress", "download")
}

// librarySchemaCmd generates JSON schemas for the library's structured outputs.
var librarySchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for the library's structured outputs",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("progress")):
			schema = reflector.Reflect(&library.Progress{})
		case lo.Must(cmd.Flags().GetBool("download")):
			schema = reflector.Reflect(&library.Download{})
		default:
			schema = reflector.Reflect([]*source.Episode{})
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
