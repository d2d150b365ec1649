package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/BerylCAtieno/document-assistant/internal/router"
	"github.com/BerylCAtieno/document-assistant/internal/watcher"
)

func serveAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.logger
	handler := router.NewRouter(app.service, app.cfg.MaxUploadSize, logger)

	// Batches call the model once per file with a pause in between, so
	// responses can take minutes.
	srv := &http.Server{
		Addr:         ":" + app.cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", app.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Info("Server exited")
	return nil
}

func analyzeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no files given; usage: docassist analyze FILE...", 2)
	}

	app, err := newApplication(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcomes := app.service.ProcessLocalFiles(ctx, c.Args().Slice())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outcomes); err != nil {
		return fmt.Errorf("failed to write outcomes: %w", err)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(outcomes)), 1)
	}
	return nil
}

func watchAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.logger

	inbox, err := watcher.NewInboxWatcher(app.cfg.InboxDir, app.cfg.PaceDelay, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = inbox.Run(ctx, func(ctx context.Context, path string) {
		outcome := app.service.ProcessInboxFile(ctx, path)
		if outcome.Failed() {
			logger.Warn("Inbox file failed", "path", path, "error", outcome.Error)
			return
		}
		logger.Info("Inbox file renamed", "original", outcome.OriginalName, "new_name", outcome.ServerName)
	})

	logger.Info("Inbox watcher stopped")
	return err
}
