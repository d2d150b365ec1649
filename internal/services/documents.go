package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BerylCAtieno/document-assistant/internal/analyzer"
	"github.com/BerylCAtieno/document-assistant/internal/config"
	"github.com/BerylCAtieno/document-assistant/internal/export"
	"github.com/BerylCAtieno/document-assistant/internal/extractor"
	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/repository"
	"github.com/BerylCAtieno/document-assistant/internal/storage"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

type DocumentService interface {
	// ProcessUploads runs every file through extraction, analysis and rename,
	// one after another. It always returns one outcome per request, in order.
	ProcessUploads(ctx context.Context, reqs []*models.UploadRequest) []models.UploadOutcome
	ProcessLocalFiles(ctx context.Context, paths []string) []models.UploadOutcome
	ProcessInboxFile(ctx context.Context, path string) models.UploadOutcome
	OpenDownload(ctx context.Context, name string) (*Download, error)
	History(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	ExportHistory(ctx context.Context) ([]byte, error)
}

// Download is a file ready to be streamed to a client. Close must be called.
type Download struct {
	Name    string
	ModTime time.Time
	Content io.ReadSeeker
	closer  io.Closer
}

func (d *Download) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

type documentService struct {
	extractor extractor.Extractor
	analyzer  analyzer.Analyzer
	uploads   *storage.UploadDir
	repo      repository.Repository
	archive   storage.Archive
	paceDelay time.Duration
	suffix    func() string
	logger    *utils.Logger
}

// NewService wires the pipeline. repo and archive may be nil, in which case
// history and archiving are skipped.
func NewService(
	ext extractor.Extractor,
	llm analyzer.Analyzer,
	uploads *storage.UploadDir,
	repo repository.Repository,
	archive storage.Archive,
	cfg *config.Config,
	logger *utils.Logger,
) DocumentService {
	return &documentService{
		extractor: ext,
		analyzer:  llm,
		uploads:   uploads,
		repo:      repo,
		archive:   archive,
		paceDelay: cfg.PaceDelay,
		suffix:    utils.UniqueSuffix,
		logger:    logger,
	}
}

func (s *documentService) ProcessUploads(ctx context.Context, reqs []*models.UploadRequest) []models.UploadOutcome {
	outcomes := make([]models.UploadOutcome, 0, len(reqs))

	for i, req := range reqs {
		if i > 0 {
			s.pace(ctx)
		}
		outcomes = append(outcomes, s.processUpload(ctx, req))
	}

	return outcomes
}

// ProcessLocalFiles reads files from disk and processes them like uploads.
// The source files are left untouched.
func (s *documentService) ProcessLocalFiles(ctx context.Context, paths []string) []models.UploadOutcome {
	outcomes := make([]models.UploadOutcome, 0, len(paths))

	for i, p := range paths {
		if i > 0 {
			s.pace(ctx)
		}

		name := filepath.Base(p)
		data, err := os.ReadFile(p)
		if err != nil {
			s.logger.Error("Failed to read local file", "path", p, "error", err)
			outcomes = append(outcomes, models.UploadOutcome{
				OriginalName: storage.SecureFilename(name),
				Error:        models.ErrMsgSaveFailed,
			})
			continue
		}

		outcomes = append(outcomes, s.processUpload(ctx, &models.UploadRequest{File: data, Filename: name}))
	}

	return outcomes
}

// ProcessInboxFile moves a file dropped in the inbox into the upload
// directory and processes it.
func (s *documentService) ProcessInboxFile(ctx context.Context, path string) models.UploadOutcome {
	original := storage.SecureFilename(filepath.Base(path))
	if original == "" {
		s.logger.Warn("Inbox file has no usable name", "path", path)
		return models.UploadOutcome{OriginalName: filepath.Base(path), Error: models.ErrMsgInvalidName}
	}

	if _, err := s.uploads.Import(path, original); err != nil {
		s.logger.Error("Failed to import inbox file", "path", path, "error", err)
		return models.UploadOutcome{OriginalName: original, Error: models.ErrMsgSaveFailed}
	}

	return s.processStored(ctx, original)
}

func (s *documentService) processUpload(ctx context.Context, req *models.UploadRequest) models.UploadOutcome {
	original := storage.SecureFilename(req.Filename)
	if original == "" {
		s.logger.Warn("Upload has no usable filename", "filename", req.Filename)
		return models.UploadOutcome{OriginalName: req.Filename, Error: models.ErrMsgInvalidName}
	}

	if _, err := s.uploads.Save(original, req.File); err != nil {
		s.logger.Error("Failed to save upload", "filename", original, "error", err)
		return models.UploadOutcome{OriginalName: original, Error: models.ErrMsgSaveFailed}
	}

	return s.processStored(ctx, original)
}

// processStored analyzes a file already in the upload directory and renames
// it. On failure the file is deleted.
func (s *documentService) processStored(ctx context.Context, original string) models.UploadOutcome {
	logger := s.logger.With("filename", original)
	outcome := models.UploadOutcome{OriginalName: original}

	path, err := s.uploads.Path(original)
	if err != nil {
		outcome.Error = models.ErrMsgInvalidName
		return outcome
	}

	logger.Info("Starting document analysis")
	result, mode, err := s.analyze(ctx, path)
	if err != nil {
		logger.Error("Failed to analyze document", "error", err)
		s.discard(original)
		outcome.Error = models.ErrMsgAnalysisFailed
		return outcome
	}

	newName := storage.BuildNewName(result, filepath.Ext(original), s.suffix())
	serverName := storage.SecureFilename(newName)

	renamed, err := s.uploads.Rename(original, serverName)
	if err != nil {
		logger.Error("Failed to rename document", "new_name", serverName, "error", err)
		s.discard(original)
		outcome.Error = models.ErrMsgRenameFailed
		return outcome
	}

	outcome.NewName = newName
	outcome.ServerName = serverName
	outcome.Description = result.DescriptionOrDefault()

	logger.Info("Document renamed", "new_name", serverName, "model", result.Model, "mode", mode)

	s.archiveFile(ctx, renamed, serverName)
	s.recordHistory(ctx, outcome, result, mode)

	return outcome
}

func (s *documentService) analyze(ctx context.Context, path string) (*models.AnalysisResult, models.ContentMode, error) {
	content, err := s.extractor.Extract(ctx, extractor.NewRequest(path))
	if errors.Is(err, extractor.ErrInsufficientContent) {
		s.logger.Info("Using placeholder result without calling the model", "path", path)
		return models.PlaceholderResult(), models.ContentModeText, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("extraction failed: %w", err)
	}

	result, err := s.analyzer.Analyze(ctx, content)
	if err != nil {
		return nil, content.Mode, err
	}

	return result, content.Mode, nil
}

func (s *documentService) discard(name string) {
	if err := s.uploads.Remove(name); err != nil {
		s.logger.Warn("Failed to delete upload", "filename", name, "error", err)
	}
}

func (s *documentService) archiveFile(ctx context.Context, path, serverName string) {
	if s.archive == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Failed to read file for archiving", "path", path, "error", err)
		return
	}

	key := storage.ArchiveKey(serverName)
	if err := s.archive.Upload(ctx, key, data, storage.ContentTypeFor(serverName)); err != nil {
		s.logger.Warn("Failed to archive document", "key", key, "error", err)
	}
}

func (s *documentService) recordHistory(ctx context.Context, outcome models.UploadOutcome, result *models.AnalysisResult, mode models.ContentMode) {
	if s.repo == nil {
		return
	}

	rec := &models.AnalysisRecord{
		OriginalName:    outcome.OriginalName,
		NewName:         outcome.NewName,
		ServerName:      outcome.ServerName,
		DocumentType:    result.DocumentType,
		Title:           result.TitleOrDefault(),
		PrincipalDetail: result.DetailOrDefault(),
		Description:     outcome.Description,
		Model:           result.Model,
		ContentMode:     string(mode),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Warn("Failed to record analysis history", "filename", outcome.ServerName, "error", err)
	}
}

// pace waits between files so the external API is not hit in bursts.
func (s *documentService) pace(ctx context.Context) {
	if s.paceDelay <= 0 {
		return
	}

	timer := time.NewTimer(s.paceDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// OpenDownload opens a file from the upload directory, falling back to the
// archive when one is configured.
func (s *documentService) OpenDownload(ctx context.Context, name string) (*Download, error) {
	f, info, err := s.uploads.Open(name)
	if err == nil {
		return &Download{Name: name, ModTime: info.ModTime(), Content: f, closer: f}, nil
	}

	if errors.Is(err, storage.ErrInvalidName) {
		return nil, utils.NewNotFoundError(models.ErrMsgFileNotFound)
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to open download", "filename", name, "error", err)
		return nil, utils.WrapInternalError("Failed to open file", err)
	}

	if s.archive != nil {
		data, aerr := s.archive.Download(ctx, storage.ArchiveKey(name))
		if aerr == nil {
			return &Download{Name: name, Content: bytes.NewReader(data)}, nil
		}
		s.logger.Debug("File not found in archive", "filename", name, "error", aerr)
	}

	return nil, utils.NewNotFoundError(models.ErrMsgFileNotFound)
}

func (s *documentService) History(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if s.repo == nil {
		return []models.AnalysisRecord{}, nil
	}

	records, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err)
		return nil, utils.WrapInternalError("Failed to retrieve history", err)
	}
	return records, nil
}

func (s *documentService) ExportHistory(ctx context.Context) ([]byte, error) {
	records, err := s.History(ctx, repository.MaxHistoryLimit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := export.HistoryXLSX(records)
	if err != nil {
		s.logger.Error("Failed to export history", "error", err)
		return nil, utils.WrapInternalError("Failed to export history", err)
	}

	s.logger.Info("History exported", "rows", len(records), "elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}
