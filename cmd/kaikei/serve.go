package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/api"
	"github.com/Veraticus/kaikei/internal/cli"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scan-folder poller",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "listen address (default from api.listen)")
	cmd.Flags().Bool("no-poll", false, "serve the API without polling scan folders")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	noPoll, _ := cmd.Flags().GetBool("no-poll")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	listen, _ := cmd.Flags().GetString("listen")
	if listen == "" {
		listen = a.Config.API.Listen
	}

	server := api.NewServer(api.Deps{
		Tenants:      a.Directory,
		Ledgers:      a.Ledgers,
		Examples:     a.State,
		Pipeline:     a.Pipeline,
		DeleteTenant: a.DeleteTenant,
		AdminToken:   a.Config.API.AdminToken,
		UploadDir:    filepath.Join(a.Config.DataDir, "uploads"),
	})
	httpServer := server.NewHTTPServer(listen)

	pollDone := make(chan struct{})
	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()

	if noPoll {
		close(pollDone)
	} else {
		go func() {
			defer close(pollDone)
			if err := a.Poller().Run(pollCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Poller stopped", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API listening", "addr", listen)
		serveErr <- httpServer.ListenAndServe()
	}()

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("kaikei serving on "+listen))

	select {
	case err := <-serveErr:
		stopPoll()
		<-pollDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	stopPoll()
	<-pollDone
	if err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	return nil
}
