package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/config"
)

func testConfig(baseURL, key string) *config.Config {
	cfg := &config.Config{}
	cfg.AI.BaseURL = baseURL
	cfg.AI.GeminiAPIKey = key
	cfg.AI.Model = "gemini-test"
	cfg.AI.Timeout = 2 * time.Second
	return cfg
}

func TestGenerate_ReturnsCandidateText(t *testing.T) {
	var gotPrompt, gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  A night to remember.  "}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini(testConfig(srv.URL, "secret"))
	prompt := DescriptionPrompt("Gala", "Rio")
	out := g.Generate(context.Background(), prompt)

	assert.Equal(t, "A night to remember.", out)
	assert.Equal(t, prompt, gotPrompt)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
}

func TestGenerate_MissingKey(t *testing.T) {
	g := NewGemini(testConfig("http://127.0.0.1:1", ""))
	assert.Equal(t, MissingKeyText, g.Generate(context.Background(), "x"))
}

func TestGenerate_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGemini(testConfig(srv.URL, "secret"))
	assert.Equal(t, Fallback, g.Generate(context.Background(), "x"))
}

func TestGenerate_FallbackOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGemini(testConfig(srv.URL, "secret"))
	assert.Equal(t, Fallback, g.Generate(context.Background(), "x"))
}

func TestDescriptionPrompt(t *testing.T) {
	assert.Equal(t,
		`Write a short, exciting, and professional description (max 30 words) for an event named "Gala" happening at "Rio". Make it sound inviting.`,
		DescriptionPrompt("Gala", "Rio"))
}
