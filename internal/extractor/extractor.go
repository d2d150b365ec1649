package extractor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

const (
	// MaxTextChars caps the text sent to the model.
	MaxTextChars = 8000
	// MinPDFTextChars is the stripped text length under which a PDF is treated as scanned.
	MinPDFTextChars = 100
	// MinDOCXTextChars is the stripped text length under which a DOCX is unreadable.
	MinDOCXTextChars = 20
	// MaxPDFPages is the number of leading pages rendered for scanned PDFs.
	MaxPDFPages = 5
	// RenderDPI is the rasterization resolution for scanned PDFs.
	RenderDPI = 150
)

var (
	ErrUnsupportedType     = errors.New("unsupported file type")
	ErrInsufficientContent = errors.New("insufficient extractable content")
)

// Extractor turns an uploaded file into text or page images for the model.
type Extractor interface {
	Extract(ctx context.Context, req models.AnalysisRequest) (*models.ExtractedContent, error)
}

type documentExtractor struct {
	renderer PageRenderer
	readPDF  func(path string) (string, int, error)
	logger   *utils.Logger
}

func NewExtractor(renderer PageRenderer, logger *utils.Logger) Extractor {
	return &documentExtractor{
		renderer: renderer,
		readPDF:  ReadPDFText,
		logger:   logger,
	}
}

// NewRequest builds an AnalysisRequest with the lower-cased extension of path.
func NewRequest(path string) models.AnalysisRequest {
	return models.AnalysisRequest{
		FilePath:  path,
		Extension: strings.ToLower(filepath.Ext(path)),
	}
}

func IsSupported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (e *documentExtractor) Extract(ctx context.Context, req models.AnalysisRequest) (*models.ExtractedContent, error) {
	switch req.Extension {
	case ".pdf":
		return e.extractPDF(ctx, req.FilePath)
	case ".docx":
		return e.extractDOCX(req.FilePath)
	case ".jpg", ".jpeg", ".png":
		return e.extractImage(req.FilePath)
	default:
		e.logger.Warn("Unsupported file extension", "extension", req.Extension, "path", req.FilePath)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Extension)
	}
}

func (e *documentExtractor) extractPDF(ctx context.Context, path string) (*models.ExtractedContent, error) {
	text, pages, err := e.readPDF(path)
	if err != nil {
		e.logger.Warn("Failed to read PDF text layer, falling back to page images", "path", path, "error", err)
		text = ""
	}

	if strippedLen(text) >= MinPDFTextChars {
		return models.NewTextContent(truncate(text, MaxTextChars)), nil
	}

	e.logger.Info("PDF has little text, rendering pages for vision analysis", "path", path, "pages", pages)
	if pages > MaxPDFPages {
		e.logger.Warn("PDF has more than the page limit, analyzing only the first pages",
			"pages", pages, "limit", MaxPDFPages)
	}

	last := MaxPDFPages
	if pages > 0 && pages < last {
		last = pages
	}

	rendered, err := e.renderer.RenderPages(ctx, path, 1, last, RenderDPI)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF pages: %w", err)
	}
	if len(rendered) == 0 {
		return nil, fmt.Errorf("no pages rendered from PDF")
	}
	if len(rendered) > MaxPDFPages {
		rendered = rendered[:MaxPDFPages]
	}

	images := make([]string, 0, len(rendered))
	for _, page := range rendered {
		images = append(images, base64.StdEncoding.EncodeToString(page))
	}

	return models.NewImageContent(images), nil
}

func (e *documentExtractor) extractDOCX(path string) (*models.ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DOCX: %w", err)
	}

	text, err := ExtractDOCX(data)
	if err != nil {
		return nil, err
	}

	if strippedLen(text) < MinDOCXTextChars {
		e.logger.Info("DOCX has too little text", "path", path, "length", strippedLen(text))
		return nil, ErrInsufficientContent
	}

	return models.NewTextContent(truncate(text, MaxTextChars)), nil
}

func (e *documentExtractor) extractImage(path string) (*models.ExtractedContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := EncodeJPEG(f)
	if err != nil {
		return nil, err
	}

	return models.NewImageContent([]string{base64.StdEncoding.EncodeToString(data)}), nil
}

func strippedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
