// Command pacsd runs the DICOM storage/query/retrieve service: an SCP
// that accepts C-ECHO, C-STORE, C-FIND, C-GET, and C-MOVE over a
// configured set of presentation contexts, indexing and persisting
// received instances to a local filesystem root.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcmkit/pacs/config"
	pacslog "github.com/dcmkit/pacs/log"
	"github.com/dcmkit/pacs/server"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pacsd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "pacsd.yaml", "path to the server configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := pacslog.New(pacslog.Options{
		Level: logLevel(cfg.Verbose),
		JSON:  !cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	srv, handlers, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	_ = handlers // exposed for a future status/metrics endpoint

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("ae_title", cfg.AETitle).WithField("port", cfg.Port).Info("starting pacsd")

	if err := srv.Listen(ctx); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down pacsd")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func logLevel(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}
