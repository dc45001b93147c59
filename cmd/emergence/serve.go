package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/emergence"
	"github.com/aretw0/emergence/internal/metrics"
	httpadapter "github.com/aretw0/emergence/pkg/adapters/http"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [document]",
	Short: "Start the HTTP server",
	Long:  `Serves presentation sessions and the editor operations as a JSON API over HTTP.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, args)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Addr = addr
		}

		manager, closeStore, err := a.sessions()
		if err != nil {
			return err
		}
		defer closeStore()

		collector := metrics.New()
		streams := httpadapter.NewStreamManager()
		eng, err := emergence.New(a.source(),
			emergence.WithPlayer(a.player()),
			emergence.WithLogger(a.logger),
			emergence.WithLifecycleHooks(streams.Hooks(collector.Hooks(domain.LifecycleHooks{}))),
		)
		if err != nil {
			return err
		}

		api := httpadapter.NewServer(eng,
			func(id string) httpadapter.Session { return eng.NewSession(id) },
			httpadapter.WithManager(manager),
			httpadapter.WithMetrics(collector),
			httpadapter.WithStreams(streams),
			httpadapter.WithLogger(a.logger),
			httpadapter.WithVersion(emergence.Version),
		)
		defer api.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watch, _ := cmd.Flags().GetBool("watch")
		if watch || a.cfg.Watch {
			changes, err := eng.Watch(ctx)
			if err != nil {
				return err
			}
			go func() {
				for range changes {
					a.logger.Info("document changed, reloading sessions")
					api.ReloadAll(ctx)
				}
			}()
		}

		srv := &http.Server{
			Addr:              a.cfg.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("server listening", "addr", srv.Addr, "document", a.cfg.Document, "store", a.cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				_ = srv.Close()
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload sessions when the document file changes")
}
