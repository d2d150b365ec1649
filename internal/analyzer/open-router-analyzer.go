package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BerylCAtieno/document-assistant/internal/config"
	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

// ErrAnalysisFailed is returned when every candidate model failed.
var ErrAnalysisFailed = errors.New("analysis failed with every candidate model")

type Analyzer interface {
	Analyze(ctx context.Context, content *models.ExtractedContent) (*models.AnalysisResult, error)
}

type openRouterAnalyzer struct {
	apiKey    string
	url       string
	models    []string
	maxTokens int
	referer   string
	title     string
	logger    *utils.Logger
	client    *http.Client
}

type OpenRouterResponse struct {
	Choices []Choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewOpenRouterAnalyzer(cfg *config.Config, logger *utils.Logger) Analyzer {
	url := cfg.OpenRouterURL
	if url == "" {
		url = config.DefaultOpenRouterURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &openRouterAnalyzer{
		apiKey:    cfg.OpenRouterAPIKey,
		url:       url,
		models:    append([]string(nil), cfg.Models...),
		maxTokens: cfg.MaxTokens,
		referer:   cfg.AppReferer,
		title:     cfg.AppTitle,
		logger:    logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Analyze tries each candidate model once, in order, and returns the first
// structured result.
func (a *openRouterAnalyzer) Analyze(ctx context.Context, content *models.ExtractedContent) (*models.AnalysisResult, error) {
	for _, model := range a.models {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}

		a.logger.Info("Trying analysis with model", "model", model, "mode", content.Mode)

		result, err := a.tryModel(ctx, model, content)
		if err != nil {
			a.logger.Warn("Model attempt failed", "model", model, "error", err)
			continue
		}

		result.Model = model
		a.logger.Info("Analysis succeeded", "model", model, "type", result.DocumentType)
		return result, nil
	}

	a.logger.Error("All candidate models failed", "models", a.models)
	return nil, ErrAnalysisFailed
}

func (a *openRouterAnalyzer) tryModel(ctx context.Context, model string, content *models.ExtractedContent) (*models.AnalysisResult, error) {
	payload := BuildPayload(model, content, a.maxTokens)

	reply, err := a.complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	shape, err := NormalizeReply(reply)
	if err != nil {
		a.logger.Debug("Unparseable model reply", "model", model, "content", reply)
		return nil, err
	}
	if shape.Kind == ReplyList {
		a.logger.Warn("Model returned a list, using its first element", "model", model, "length", len(shape.List))
	}

	return shape.Result()
}

// complete sends one chat completion request and returns the reply text.
func (a *openRouterAnalyzer) complete(ctx context.Context, payload ChatRequest) (string, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if a.referer != "" {
		req.Header.Set("HTTP-Referer", a.referer)
	}
	if a.title != "" {
		req.Header.Set("X-Title", a.title)
	}

	reqID := uuid.New().String()
	start := time.Now()
	a.logger.Debug("Sending chat completion request",
		"req_id", reqID, "model", payload.Model, "content_length", len(jsonData))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("Received chat completion response",
		"req_id", reqID, "status", resp.StatusCode, "bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		a.logger.Error("OpenRouter API error", "status", resp.StatusCode, "body", truncateBody(body))
		return "", fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode)
	}

	var openRouterResp OpenRouterResponse
	if err := json.Unmarshal(body, &openRouterResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if openRouterResp.Error != nil {
		return "", fmt.Errorf("OpenRouter API error: %s", openRouterResp.Error.Message)
	}

	if len(openRouterResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return openRouterResp.Choices[0].Message.Content, nil
}

func truncateBody(b []byte) string {
	const limit = 2048
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "...(truncated)"
}
