// Package cmd implements the command-line interface for castor.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castor-cli/castor/download"
	"github.com/castor-cli/castor/key"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/playback"
	"github.com/castor-cli/castor/player"
	"github.com/castor-cli/castor/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("continue", "c", false, "Resume the most recently played unfinished episode")
	playCmd.Flags().IntP("position", "p", 0, "Start position in seconds, overriding saved progress")
	playCmd.Flags().Float64P("speed", "s", 0, "Playback speed multiplier (0.5-3.0)")
}

// terminalPublisher renders throttled now-playing notifications as an
// erasable terminal status line.
type terminalPublisher struct {
	erase func()
}

func (p *terminalPublisher) Publish(n playback.Notification) {
	if p.erase != nil {
		p.erase()
	}

	state := "⏸"
	if n.Ongoing {
		state = "▶"
	}

	p.erase = util.PrintErasable(fmt.Sprintf("%s %s  %s", state, n.Title, n.Subtext))
}

// cliHost keeps the process alive while the session wants to run.
type cliHost struct {
	released chan struct{}
}

func newCliHost() *cliHost {
	return &cliHost{released: make(chan struct{}, 1)}
}

func (h *cliHost) KeepAlive() {}

func (h *cliHost) Release() {
	select {
	case h.released <- struct{}{}:
	default:
	}
}

// playCmd streams one or more episodes in the foreground; additional ids are queued.
var playCmd = &cobra.Command{
	Use:   "play [episode-id...]",
	Short: "Play episodes from the library, queueing any additional ids",
	Example: "  castor play ep-42\n" +
		"  castor play ep-42 ep-43 ep-44\n" +
		"  castor play --continue",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		var (
			resume   = lo.Must(cmd.Flags().GetBool("continue"))
			position = lo.Must(cmd.Flags().GetInt("position"))
			speed    = lo.Must(cmd.Flags().GetFloat64("speed"))
		)

		if len(args) == 0 && !resume {
			handleErr(errors.New("at least one episode id or --continue is required"))
		}

		lib := library.New()
		manager := download.NewManager(lib)
		defer manager.Close()
		handleErr(manager.Reconcile())

		host := newCliHost()
		throttler := playback.NewThrottler(
			&terminalPublisher{},
			time.Duration(viper.GetInt(key.NotifyMinIntervalMs))*time.Millisecond,
		)

		session := playback.NewSession(playback.Options{
			Engine:    player.NewMPV(viper.GetString(key.PlayerEngine)),
			Library:   lib,
			Throttler: throttler,
			Host:      host,
			Resolver:  manager,
		})
		defer func() {
			handleErr(session.Close())
		}()

		ids := args
		if resume {
			id, err := mostRecentUnfinished(lib)
			handleErr(err)
			ids = append([]string{id}, ids...)
		}

		session.Play(ids[0], int64(position)*1000)
		if !session.Status().HasEpisode() {
			handleErr(fmt.Errorf("episode %q is not in the library", ids[0]))
		}

		if cmd.Flags().Changed("speed") {
			session.SetSpeed(speed)
		}

		for _, id := range ids[1:] {
			episode, ok, err := lib.Episode(id)
			handleErr(err)
			if !ok {
				handleErr(fmt.Errorf("episode %q is not in the library", id))
			}
			session.Enqueue(episode)
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

		liveness := time.NewTicker(time.Second)
		defer liveness.Stop()

		for {
			select {
			case <-interrupt:
				session.Stop()
				return
			case <-host.released:
				return
			case <-liveness.C:
				if !session.ShouldKeepRunning() {
					return
				}
			}
		}
	},
}

// mostRecentUnfinished picks the episode with the newest last-played timestamp
// that has not been completed.
func mostRecentUnfinished(lib library.Store) (string, error) {
	rows, err := lib.AllProgress()
	if err != nil {
		return "", err
	}

	var (
		best     string
		bestTime time.Time
	)

	for id, row := range rows {
		if row.IsCompleted || row.LastPlayedAt == nil {
			continue
		}
		if best == "" || row.LastPlayedAt.After(bestTime) {
			best = id
			bestTime = *row.LastPlayedAt
		}
	}

	if best == "" {
		return "", errors.New("no unfinished episode to continue")
	}

	return best, nil
}
