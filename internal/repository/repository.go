package repository

import (
	"context"
	"time"

	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type Repository interface {
	Create(ctx context.Context, rec *models.AnalysisRecord) error
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create stores rec, filling in ID and CreatedAt when they are unset.
func (r *repository) Create(ctx context.Context, rec *models.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = utils.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO analyses (id, original_name, new_name, server_name, document_type, title,
		                      principal_detail, description, model, content_mode, created_at)
		VALUES (:id, :original_name, :new_name, :server_name, :document_type, :title,
		        :principal_detail, :description, :model, :content_mode, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// List returns the most recent records first. limit is clamped to
// [1, MaxHistoryLimit]; zero or negative means DefaultHistoryLimit.
func (r *repository) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	limit = ClampLimit(limit)

	query := `
		SELECT id, original_name, new_name, server_name, document_type, title,
		       principal_detail, description, model, content_mode, created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	records := []models.AnalysisRecord{}
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, err
	}

	return records, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
