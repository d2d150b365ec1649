package analyzer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/BerylCAtieno/document-assistant/internal/models"
)

func TestBuildPayloadText(t *testing.T) {
	req := BuildPayload("google/gemma-3-27b-it:free", models.NewTextContent("Fatura n. 123"), 1024)

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("text content should be a plain string: %v", err)
	}

	if decoded.Model != "google/gemma-3-27b-it:free" || decoded.MaxTokens != 1024 {
		t.Errorf("unexpected envelope: %+v", decoded)
	}
	if len(decoded.Messages) != 1 || decoded.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", decoded.Messages)
	}
	content := decoded.Messages[0].Content
	if !strings.HasPrefix(content, analysisPrompt) {
		t.Error("content should start with the instruction template")
	}
	if !strings.HasSuffix(content, contentDelimiter+"Fatura n. 123") {
		t.Errorf("content should end with delimiter and text, got %q", content[len(content)-60:])
	}
}

func TestBuildPayloadImages(t *testing.T) {
	req := BuildPayload("m", models.NewImageContent([]string{"QUJD", "REVG"}), 512)

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Messages []struct {
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL *struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("image content should be a list of parts: %v", err)
	}

	parts := decoded.Messages[0].Content
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != analysisPrompt {
		t.Errorf("first part should be the prompt: %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL.URL != "data:image/jpeg;base64,QUJD" {
		t.Errorf("unexpected image part: %+v", parts[1])
	}
	if parts[2].ImageURL.URL != "data:image/jpeg;base64,REVG" {
		t.Errorf("unexpected image order: %+v", parts[2])
	}
}

func TestPromptForbidsFences(t *testing.T) {
	for _, field := range []string{"tipo_documento", "titulo_resumido", "detalhe_principal", "descricao"} {
		if !strings.Contains(analysisPrompt, field) {
			t.Errorf("prompt is missing field %s", field)
		}
	}
	if !strings.Contains(analysisPrompt, "começar com { e terminar com }") {
		t.Error("prompt should require a bare JSON object")
	}
}
