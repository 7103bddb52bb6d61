package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/char-projects/PokeAPI/internal/model"
)

// UpstreamError mirrors the image backend's HTTP status and body so the
// handler can forward them verbatim.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, string(e.Body))
}

// GenerateResult normalizes the different response shapes the image backend
// produces. Image is a base64-encoded PNG when present.
type GenerateResult struct {
	Image string          `json:"image,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// GenerateService calls the Stable Diffusion style image backend. The
// primary txt2img endpoint is tried first; on any failure the legacy predict
// endpoint gets exactly one fallback attempt.
type GenerateService struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewGenerateService(apiURL string, apiKey string, timeout time.Duration) *GenerateService {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &GenerateService{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *GenerateService) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	prompt = strings.TrimSpace(prompt)
	if len(prompt) < 3 || len(prompt) > 2000 {
		return nil, model.ErrInvalidInput
	}
	if s.apiURL == "" {
		return nil, fmt.Errorf("image backend not configured")
	}

	result, primaryErr := s.post(ctx, s.apiURL+"/sdapi/v1/txt2img", map[string]any{
		"prompt": prompt,
		"steps":  20,
		"width":  512,
		"height": 512,
	})
	if primaryErr == nil {
		return result, nil
	}

	result, fallbackErr := s.post(ctx, s.apiURL+"/api/predict", map[string]any{
		"prompt": prompt,
	})
	if fallbackErr == nil {
		return result, nil
	}

	// Surface both attempts; wrapping keeps the fallback's UpstreamError
	// reachable via errors.As so its status is forwarded, not a generic 500.
	return nil, fmt.Errorf("txt2img failed (%v); predict failed: %w", primaryErr, fallbackErr)
}

func (s *GenerateService) post(ctx context.Context, endpoint string, payload map[string]any) (*GenerateResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call image backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return normalizeResult(respBody), nil
}

func normalizeResult(body []byte) *GenerateResult {
	var parsed struct {
		Images []string `json:"images"`
		Image  string   `json:"image"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Images) > 0 && parsed.Images[0] != "" {
			return &GenerateResult{Image: parsed.Images[0]}
		}
		if parsed.Image != "" {
			return &GenerateResult{Image: parsed.Image}
		}
	}

	return &GenerateResult{Raw: json.RawMessage(body)}
}
