package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/services"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

// stubService satisfies services.DocumentService for routing tests.
type stubService struct {
	services.DocumentService
}

func (stubService) History(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	return []models.AnalysisRecord{}, nil
}

func TestRoutes(t *testing.T) {
	h := NewRouter(stubService{}, 1<<20, utils.NewDiscardLogger())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/v1/history", http.StatusOK},
		{http.MethodOptions, "/upload", http.StatusNoContent},
		{http.MethodGet, "/upload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}
