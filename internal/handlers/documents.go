package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/BerylCAtieno/document-assistant/internal/export"
	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/services"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
	"github.com/gorilla/mux"
)

const (
	// UploadField is the multipart field carrying the files.
	UploadField = "arquivo"

	multipartMemory = 32 << 20
)

//go:embed static/index.html
var staticFS embed.FS

type DocumentHandler struct {
	service       services.DocumentService
	maxUploadSize int64
	logger        *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, maxUploadSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *DocumentHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		h.respondError(w, utils.WrapInternalError("Internal server error", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// Upload accepts one or more files in the "arquivo" field and answers with
// one outcome per non-empty part, in submission order.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, &utils.AppError{
				StatusCode: http.StatusRequestEntityTooLarge,
				Message:    fmt.Sprintf("O envio excede o limite de %d bytes.", tooLarge.Limit),
			})
			return
		}
		h.logger.Warn("Invalid upload form", "error", err)
		h.respondError(w, utils.NewBadRequestError(models.ErrMsgNoFiles))
		return
	}
	defer r.MultipartForm.RemoveAll()

	// Parts sent with an empty filename are parsed as plain values.
	parts, hasFiles := r.MultipartForm.File[UploadField]
	_, hasEmpty := r.MultipartForm.Value[UploadField]
	if !hasFiles && !hasEmpty {
		h.respondError(w, utils.NewBadRequestError(models.ErrMsgNoFiles))
		return
	}

	reqs := make([]*models.UploadRequest, 0, len(parts))
	for _, part := range parts {
		if part.Filename == "" {
			continue
		}

		data, err := readPart(part)
		if err != nil {
			h.logger.Error("Failed to read uploaded part", "filename", part.Filename, "error", err)
			h.respondError(w, utils.WrapInternalError("Failed to read file", err))
			return
		}

		reqs = append(reqs, &models.UploadRequest{File: data, Filename: part.Filename})
	}

	h.logger.Info("Processing upload batch", "files", len(reqs))
	outcomes := h.service.ProcessUploads(r.Context(), reqs)

	h.respondJSON(w, http.StatusOK, outcomes)
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]

	dl, err := h.service.OpenDownload(r.Context(), name)
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusNotFound {
			http.Error(w, appErr.Message, http.StatusNotFound)
			return
		}
		h.respondError(w, err)
		return
	}
	defer dl.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	http.ServeContent(w, r, dl.Name, dl.ModTime, dl.Content)
}

func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(w, utils.NewBadRequestError("Parâmetro limit inválido."))
			return
		}
		limit = n
	}

	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, records)
}

func (h *DocumentHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportHistory(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := fmt.Sprintf("historico-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func readPart(part *multipart.FileHeader) ([]byte, error) {
	f, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		message = appErr.Message
	} else {
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"erro": message})
}
