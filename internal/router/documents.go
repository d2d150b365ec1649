package router

import (
	"net/http"

	"github.com/BerylCAtieno/document-assistant/internal/handlers"
	"github.com/BerylCAtieno/document-assistant/internal/middleware"
	"github.com/BerylCAtieno/document-assistant/internal/services"
	"github.com/BerylCAtieno/document-assistant/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(docService services.DocumentService, maxUploadSize int64, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(docService, maxUploadSize, logger)

	// Browser-facing routes
	r.HandleFunc("/", docHandler.Index).Methods(http.MethodGet)
	r.HandleFunc("/upload", docHandler.Upload).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/download/{filename:.+}", docHandler.Download).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api.HandleFunc("/history", docHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/history/export", docHandler.ExportHistory).Methods(http.MethodGet)

	return r
}
