package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/config"
)

func fakeGemini(t *testing.T, text string) *httptest.Server {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"groundingMetadata": map[string]any{"groundingChunks": []any{
				map[string]any{"web": map[string]any{"uri": "https://review.example", "title": "Review"}},
			}},
		}},
	})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAuditCommand(t *testing.T) {
	server := fakeGemini(t, "The store could not be reached in a structured way.")
	t.Setenv(config.ConfigPathEnv, "")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", server.URL)
	t.Setenv("LOGGING_LEVEL", "error")

	out, err := runCLI(t, "audit", "mystore.com")
	require.NoError(t, err)

	var result audit.AuditResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "https://mystore.com", result.URL)
	assert.Equal(t, 0.0, result.OverallScore)
	assert.Equal(t, "The store could not be reached in a structured way....", result.Summary)
	assert.Equal(t, []audit.GroundingSource{{Title: "Review", URI: "https://review.example"}}, result.Sources)
}

func TestAuditCommandRequiresAPIKey(t *testing.T) {
	t.Setenv(config.ConfigPathEnv, "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	_, err := runCLI(t, "audit", "mystore.com")
	assert.Error(t, err)
}

func TestAuditCommandRejectsInvalidURL(t *testing.T) {
	t.Setenv(config.ConfigPathEnv, "")
	t.Setenv("GEMINI_API_KEY", "test-key")

	_, err := runCLI(t, "audit", "my store")
	assert.ErrorIs(t, err, audit.ErrInvalidURL)
}

func TestAuditCommandArgs(t *testing.T) {
	_, err := runCLI(t, "audit")
	assert.Error(t, err)
}
