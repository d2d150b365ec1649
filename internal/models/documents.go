package models

import (
	"time"
)

// Fallback values used when the model reply omits a field.
const (
	DefaultTitle       = "SEM_TITULO"
	DefaultDetail      = "SEM_DETALHE"
	DefaultDescription = "Nenhuma descrição gerada."
)

// Messages returned to clients in UploadOutcome.Error.
const (
	ErrMsgAnalysisFailed = "Não foi possível analisar este ficheiro."
	ErrMsgRenameFailed   = "Não foi possível renomear o ficheiro no servidor."
	ErrMsgSaveFailed     = "Não foi possível guardar o ficheiro no servidor."
	ErrMsgInvalidName    = "Nome de ficheiro inválido."
	ErrMsgNoFiles        = "Nenhum ficheiro enviado"
	ErrMsgFileNotFound   = "Ficheiro não encontrado."
)

type AnalysisRequest struct {
	FilePath  string
	Extension string
}

type ContentMode string

const (
	ContentModeText   ContentMode = "text"
	ContentModeImages ContentMode = "images"
)

// ExtractedContent is either extracted text or a set of base64 JPEG page images.
type ExtractedContent struct {
	Mode   ContentMode
	Text   string
	Images []string
}

func NewTextContent(text string) *ExtractedContent {
	return &ExtractedContent{Mode: ContentModeText, Text: text}
}

func NewImageContent(images []string) *ExtractedContent {
	return &ExtractedContent{Mode: ContentModeImages, Images: images}
}

func (c *ExtractedContent) IsImageSet() bool {
	return c.Mode == ContentModeImages
}

type AnalysisResult struct {
	DocumentType    string `json:"tipo_documento,omitempty"`
	Title           string `json:"titulo_resumido,omitempty"`
	PrincipalDetail string `json:"detalhe_principal,omitempty"`
	Description     string `json:"descricao,omitempty"`

	// Model is the candidate that produced the result; empty for placeholders.
	Model string `json:"-"`
}

// TitleOrDefault and friends apply the fallbacks used for file naming.
func (r *AnalysisResult) TitleOrDefault() string {
	if r.Title == "" {
		return DefaultTitle
	}
	return r.Title
}

func (r *AnalysisResult) DetailOrDefault() string {
	if r.PrincipalDetail == "" {
		return DefaultDetail
	}
	return r.PrincipalDetail
}

func (r *AnalysisResult) DescriptionOrDefault() string {
	if r.Description == "" {
		return DefaultDescription
	}
	return r.Description
}

// PlaceholderResult is returned without calling the model when a document
// has no meaningfully extractable text.
func PlaceholderResult() *AnalysisResult {
	return &AnalysisResult{
		DocumentType: "N/A",
		Title:        "Conteudo Ilegivel",
		Description:  "Não foi possível extrair texto suficiente.",
	}
}

// FormatErrorResult stands in for a reply whose first list element is not an object.
func FormatErrorResult() *AnalysisResult {
	return &AnalysisResult{
		Title:           "ERRO_FORMATO",
		PrincipalDetail: "ERRO",
		Description:     "Erro de formato JSON",
	}
}

type UploadRequest struct {
	File     []byte
	Filename string
}

type UploadOutcome struct {
	OriginalName string `json:"nome_original"`
	NewName      string `json:"novo_nome,omitempty"`
	ServerName   string `json:"novo_nome_servidor,omitempty"`
	Description  string `json:"descricao,omitempty"`
	Error        string `json:"erro,omitempty"`
}

func (o UploadOutcome) Failed() bool {
	return o.Error != ""
}

// AnalysisRecord is one row of the analysis history.
type AnalysisRecord struct {
	ID              string    `json:"id" db:"id"`
	OriginalName    string    `json:"original_name" db:"original_name"`
	NewName         string    `json:"new_name" db:"new_name"`
	ServerName      string    `json:"server_name" db:"server_name"`
	DocumentType    string    `json:"document_type" db:"document_type"`
	Title           string    `json:"title" db:"title"`
	PrincipalDetail string    `json:"principal_detail" db:"principal_detail"`
	Description     string    `json:"description" db:"description"`
	Model           string    `json:"model" db:"model"`
	ContentMode     string    `json:"content_mode" db:"content_mode"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
