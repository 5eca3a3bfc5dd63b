package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/campus-outreach/internal/api"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger API",
		Long: `Expose the batch jobs over HTTP so a scheduler can trigger them:

  POST /runs/outreach          daily outreach pass
  POST /runs/replies           reply stats report
  POST /runs/capture/{key}     lead capture for one campaign
  GET  /campaigns              configured campaigns
  GET  /health                 component health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, rootOpts)
		},
	}
}

func serve(cmd *cobra.Command, opts *RootOptions) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	a, cfg, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	var archive api.BucketChecker
	if a.Archive() != nil {
		archive = a.Archive()
	}
	health := api.NewHealthChecker(a.Store(), a.DB(), a.Redis(), archive)
	server := api.NewServer(cfg.Server, a, health)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Outreach trigger API listening on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received %v, shutting down...", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server failed", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
	return nil
}
