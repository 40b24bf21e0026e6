package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Server.ListenAddr = listenAddr
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		srv := &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           server.New(buildEngine(cfg), logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("shut down")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
