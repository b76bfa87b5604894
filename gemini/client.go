package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/store-auditor/backend/audit"
)

// ErrMissingAPIKey is returned when the client is built without credentials
var ErrMissingAPIKey = errors.New("gemini api key is required")

// Config describes how to reach the Gemini API
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string
}

// Client implements audit.Generator on top of the genai SDK
type Client struct {
	client *genai.Client
}

var _ audit.Generator = (*Client)(nil)

// New creates a new Client instance
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	// Pooled transport shared by every audit request
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: transport},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: client}, nil
}

// Generate sends one generateContent call. Web search grounding is enabled
// through the Google Search tool; JSON response mode cannot be combined with
// it, so the prompt asks for a fenced block instead.
func (c *Client) Generate(ctx context.Context, req audit.GenerateRequest) (*audit.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{}
	if req.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return fromResponse(resp), nil
}

// fromResponse flattens the SDK response into the audit port types. Only the
// first candidate is considered.
func fromResponse(resp *genai.GenerateContentResponse) *audit.GenerateResponse {
	out := &audit.GenerateResponse{}
	if resp == nil {
		return out
	}
	out.Text = resp.Text()

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return out
	}

	out.Citations = make([]audit.CitationChunk, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil {
			continue
		}
		var web *audit.WebCitation
		if chunk.Web != nil {
			web = &audit.WebCitation{URI: chunk.Web.URI, Title: chunk.Web.Title}
		}
		out.Citations = append(out.Citations, audit.CitationChunk{Web: web})
	}
	return out
}
