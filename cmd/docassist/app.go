package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/BerylCAtieno/document-assistant/internal/analyzer"
	"github.com/BerylCAtieno/document-assistant/internal/config"
	"github.com/BerylCAtieno/document-assistant/internal/db"
	"github.com/BerylCAtieno/document-assistant/internal/extractor"
	"github.com/BerylCAtieno/document-assistant/internal/repository"
	"github.com/BerylCAtieno/document-assistant/internal/services"
	"github.com/BerylCAtieno/document-assistant/internal/storage"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

type application struct {
	cfg      *config.Config
	logger   *utils.Logger
	database *sqlx.DB
	service  services.DocumentService
}

func (a *application) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("upload-dir"); v != "" {
		cfg.UploadDir = v
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("inbox") {
		cfg.InboxDir = c.String("inbox")
	}

	return cfg, nil
}

func newApplication(c *cli.Context) (*application, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.LogLevel)
	app := &application{cfg: cfg, logger: logger}

	uploads, err := storage.NewUploadDir(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	// Initialize database
	app.database, err = db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(app.database); err != nil {
		app.Close()
		return nil, err
	}
	repo := repository.NewRepository(app.database)

	var archive storage.Archive
	if cfg.ArchiveEnabled {
		archive, err = storage.NewS3Archive(context.Background(), cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		logger.Info("Archiving renamed documents", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketName)
	}

	renderer := extractor.NewPdftoppmRenderer(cfg.PdftoppmPath, extractor.NewExecRunner(logger))

	app.service = services.NewService(
		extractor.NewExtractor(renderer, logger),
		analyzer.NewOpenRouterAnalyzer(cfg, logger),
		uploads,
		repo,
		archive,
		cfg,
		logger,
	)

	logger.Info("Application initialized",
		"upload_dir", uploads.Root(),
		"database", cfg.DatabasePath,
		"models", cfg.Models,
	)

	return app, nil
}
