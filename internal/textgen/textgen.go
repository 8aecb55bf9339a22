// Package textgen produces short marketing copy through the Gemini REST API.
// Generation never fails from the caller's point of view: every error path
// returns a fixed fallback string.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

const (
	Fallback       = "Join us for an amazing experience!"
	MissingKeyText = "AI description unavailable: Missing API Key."
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// DescriptionPrompt is the prompt used to describe an event.
func DescriptionPrompt(name, location string) string {
	return fmt.Sprintf("Write a short, exciting, and professional description (max 30 words) for an event named %q happening at %q. Make it sound inviting.", name, location)
}

// Gemini calls the generateContent endpoint with a single user turn.
type Gemini struct {
	client  *httpclient.Client
	apiKey  string
	model   string
	baseURL string
	log     *log.Logger
}

// NewGemini builds a client with the configured timeout and no retries.
func NewGemini(cfg *config.Config) *Gemini {
	return &Gemini{
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(cfg.AI.Timeout),
			httpclient.WithRetryCount(0),
		),
		apiKey:  strings.TrimSpace(cfg.AI.GeminiAPIKey),
		model:   cfg.AI.Model,
		baseURL: strings.TrimRight(cfg.AI.BaseURL, "/"),
		log:     logger.Integration("gemini"),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, prompt string) string {
	if g.apiKey == "" {
		g.log.Warn("Gemini API key not configured")
		return MissingKeyText
	}

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.log.Error("Text generation failed", "model", g.model, "error", err)
		return Fallback
	}
	if text == "" {
		g.log.Warn("Text generation returned no candidates", "model", g.model)
		return Fallback
	}
	return text
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("gemini responded %s", resp.Status)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}
