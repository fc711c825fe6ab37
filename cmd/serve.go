package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valet-ai/valet/internal/api"
	"github.com/valet-ai/valet/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.Config.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	server, err := api.NewServer(api.ServerConfig{
		Addr:      addr,
		Logger:    a.Logger,
		Processor: a.Router,
		Ingestor:  a.Indexer,
		Pinger:    a.Pool,
		UploadDir: a.Config.DataDir,
		IsDev:     a.Config.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errc
}
