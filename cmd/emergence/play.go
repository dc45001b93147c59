package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/emergence"
	"github.com/aretw0/emergence/internal/presentation/tui"
	"github.com/aretw0/emergence/pkg/adapters/player"
	"github.com/aretw0/emergence/pkg/ports"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [document]",
	Short: "Explore the document in the terminal",
	Long: `Plays the introduction, waits for Enter and then shows the start node. Type a number
to follow a follow-up, b to return to the origin and q to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		instant, _ := cmd.Flags().GetBool("instant")
		watch, _ := cmd.Flags().GetBool("watch")
		out := cmd.OutOrStdout()

		var p ports.SequencePlayer = a.player()
		if instant {
			p = player.Instant{}
		}
		eng, err := emergence.New(a.source(),
			emergence.WithPlayer(p),
			emergence.WithLogger(a.logger),
			emergence.WithName(a.cfg.Document),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess := eng.NewSession("terminal")
		defer sess.Close()

		if watch || a.cfg.Watch {
			changes, err := eng.Watch(ctx)
			if err != nil {
				return err
			}
			go func() {
				for range changes {
					if err := sess.Reload(ctx); err != nil {
						a.logger.Warn("reload failed", "err", err)
					}
				}
			}()
		}

		renderer, err := tui.NewRenderer(out)
		if err != nil {
			return err
		}
		profile := termenv.NewOutput(out).Profile
		tui.PrintBanner(out, profile)

		r := &emergence.Runner{
			Input:      cmd.InOrStdin(),
			Output:     out,
			Renderer:   renderer,
			PhaseLabel: tui.PhaseLabeler(profile),
			Logger:     a.logger,
		}
		if err := r.Run(ctx, sess); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("instant", false, "Skip sequence animations")
	playCmd.Flags().BoolP("watch", "w", false, "Reload the document when the file changes")
}
