package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BerylCAtieno/document-assistant/internal/models"
)

type ReplyKind int

const (
	ReplyObject ReplyKind = iota + 1
	ReplyList
)

// ReplyShape is a parsed model reply: either a single object or a list.
type ReplyShape struct {
	Kind   ReplyKind
	Object map[string]any
	List   []any
}

var (
	ErrUnparseableReply = errors.New("model reply is not valid JSON")
	ErrUnexpectedShape  = errors.New("model reply is neither an object nor a list")
	ErrEmptyReply       = errors.New("model reply is an empty list")
)

var resultSchema = jsonschema.MustCompileString("analysis-result.json", `{
	"type": "object",
	"properties": {
		"tipo_documento":    {"type": ["string", "number", "boolean", "null"]},
		"titulo_resumido":   {"type": ["string", "number", "boolean", "null"]},
		"detalhe_principal": {"type": ["string", "number", "boolean", "null"]},
		"descricao":         {"type": ["string", "number", "boolean", "null"]}
	}
}`)

// CleanReply trims the reply and removes markdown code fences wherever they appear.
func CleanReply(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// NormalizeReply parses the raw reply text of a model.
func NormalizeReply(raw string) (*ReplyShape, error) {
	dec := json.NewDecoder(strings.NewReader(CleanReply(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableReply, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrUnparseableReply)
	}

	switch val := v.(type) {
	case map[string]any:
		return &ReplyShape{Kind: ReplyObject, Object: val}, nil
	case []any:
		return &ReplyShape{Kind: ReplyList, List: val}, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnexpectedShape, v)
	}
}

// Result picks the structured result out of the reply. An empty list is
// ErrEmptyReply; a list whose first element is not an object yields the
// format-error placeholder.
func (r *ReplyShape) Result() (*models.AnalysisResult, error) {
	switch r.Kind {
	case ReplyObject:
		return resultFromObject(r.Object)
	case ReplyList:
		if len(r.List) == 0 {
			return nil, ErrEmptyReply
		}
		obj, ok := r.List[0].(map[string]any)
		if !ok {
			return models.FormatErrorResult(), nil
		}
		return resultFromObject(obj)
	default:
		return nil, ErrUnexpectedShape
	}
}

func resultFromObject(obj map[string]any) (*models.AnalysisResult, error) {
	if err := resultSchema.Validate(obj); err != nil {
		return nil, fmt.Errorf("reply does not match result schema: %w", err)
	}

	return &models.AnalysisResult{
		DocumentType:    stringField(obj, "tipo_documento"),
		Title:           stringField(obj, "titulo_resumido"),
		PrincipalDetail: stringField(obj, "detalhe_principal"),
		Description:     stringField(obj, "descricao"),
	}, nil
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
