package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DachengChen/sqlagent/applog"
	"github.com/DachengChen/sqlagent/server"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question API over HTTP",
		Long: `Builds the knowledge base, resolves the assistant and serves
POST ` + server.AskPath + ` until interrupted. Initialization failure
is fatal: the server never listens without a ready assistant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			_, closeLog := applog.Setup(cfg.Log, os.Stderr)
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.initialize(ctx); err != nil {
				return fmt.Errorf("initialize assistant: %w", err)
			}

			srv := server.New(cfg.Server, a.answerer,
				server.WithState(a.engine.State),
				server.WithMetrics(a.registry, a.registry),
			).HTTPServer()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				slog.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
