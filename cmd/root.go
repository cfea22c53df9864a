// Package cmd implements the command-line interface for castor.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/castor-cli/castor/color"
	"github.com/castor-cli/castor/constant"
	"github.com/castor-cli/castor/key"
	"github.com/castor-cli/castor/log"
	"github.com/castor-cli/castor/style"
	"github.com/castor-cli/castor/util"
	"github.com/castor-cli/castor/version"
	"github.com/castor-cli/castor/where"
	"github.com/charmbracelet/lipgloss"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().BoolP("write-progress", "P", true, "Persist playback progress to the localized library")
	lo.Must0(viper.BindPFlag(key.LibrarySaveProgress, rootCmd.PersistentFlags().Lookup("write-progress")))

	rootCmd.PersistentFlags().StringP("downloads-path", "D", "", "Override the directory episode audio is downloaded into")
	lo.Must0(viper.BindPFlag(key.DownloadsPath, rootCmd.PersistentFlags().Lookup("downloads-path")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the castor application.
var rootCmd = &cobra.Command{
	Use:   constant.Castor,
	Short: "A minimalist command-line podcast player with background downloads",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A minimalist command-line podcast player with background downloads"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "✗ %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

// CheckDependencies verifies the availability of the configured audio engine binary.
func CheckDependencies() {
	engine := viper.GetString(key.PlayerEngine)
	if engine == "" {
		engine = "mpv"
	}

	if _, err := exec.LookPath(engine); err != nil {
		printMissingDependencyError(engine)
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install " + dep
	case "linux":
		installCmd = "sudo apt install " + dep
	case "windows":
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render("✗ Error: Missing Dependency")
	body := fmt.Sprintf("The required audio engine '%s' was not found in your PATH.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Orange).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
