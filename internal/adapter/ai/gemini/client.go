// Package gemini implements the Google Generative Language API client.
package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// Client implements domain.ProviderClient and domain.KeyProber.
type Client struct {
	opts ai.ClientOptions
	http *ai.HTTPClient
}

// New constructs the Gemini client.
func New(opts ai.ClientOptions) *Client {
	return &Client{opts: opts, http: ai.NewHTTPClient(domain.ProviderGemini, opts.Timeout, opts.Transport)}
}

func (c *Client) ID() domain.ProviderID { return domain.ProviderGemini }

func (c *Client) Model() string { return c.opts.Model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text joins the parts of the first candidate.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (c *Client) buildRequest(msgs []domain.Message) generateRequest {
	var system []string
	contents := make([]content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleDeveloper:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	req := generateRequest{
		Contents:         contents,
		GenerationConfig: generationConfig{MaxOutputTokens: c.opts.MaxTokens, Temperature: c.opts.Temperature},
	}
	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}
	return req
}

func (c *Client) header(secret string) http.Header {
	return http.Header{"x-goog-api-key": {secret}}
}

// Send performs one generateContent call, or streamGenerateContent when
// streaming is requested.
func (c *Client) Send(ctx context.Context, secret string, msgs []domain.Message, stream bool) (domain.Completion, error) {
	url := c.opts.Endpoint("/models/" + c.opts.Model + ":generateContent")
	if stream {
		url = c.opts.Endpoint("/models/" + c.opts.Model + ":streamGenerateContent?alt=sse")
	}
	resp, err := c.http.Do(ctx, ai.Request{
		Op:      "chat",
		Method:  http.MethodPost,
		URL:     url,
		Header:  c.header(secret),
		Payload: c.buildRequest(msgs),
		Stream:  stream,
	})
	if err != nil {
		return domain.Completion{}, err
	}
	if !resp.OK() {
		return domain.Completion{}, classify(resp.Status, resp.Body)
	}
	if resp.Stream != nil {
		return domain.Completion{Provider: domain.ProviderGemini, Model: c.opts.Model, Stream: ai.NewSSEStream(resp.Stream, extractChunk)}, nil
	}

	var out generateResponse
	if err := ai.DecodeJSON(domain.ProviderGemini, resp.Body, &out); err != nil {
		return domain.Completion{}, err
	}
	text := out.text()
	if strings.TrimSpace(text) == "" {
		return domain.Completion{}, ai.EmptyContent(domain.ProviderGemini)
	}
	return domain.Completion{Provider: domain.ProviderGemini, Model: c.opts.Model, Text: text}, nil
}

// classify applies Gemini's canonical status codes on top of the shared rules.
func classify(status int, body []byte) *domain.ProviderError {
	perr := ai.FailureFromResponse(domain.ProviderGemini, status, body)
	if perr.Kind != domain.KindFatal {
		return perr
	}
	_, typ := ai.ParseErrorBody(status, body)
	switch typ = strings.ToUpper(typ); {
	case strings.Contains(typ, "RESOURCE_EXHAUSTED"):
		perr.Kind = domain.KindRateLimited
	case strings.Contains(typ, "UNAVAILABLE"), strings.Contains(typ, "DEADLINE_EXCEEDED"):
		perr.Kind = domain.KindTransient
	case strings.Contains(typ, "UNAUTHENTICATED"):
		perr.Kind = domain.KindInvalidKey
	}
	return perr
}

func extractChunk(data []byte) (string, bool, error) {
	var chunk generateResponse
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, nil
	}
	return chunk.text(), false, nil
}

// ProbeKey lists models with the key.
func (c *Client) ProbeKey(ctx context.Context, secret string) domain.KeyStatus {
	resp, err := c.http.Do(ctx, ai.Request{
		Op:     "probe",
		Method: http.MethodGet,
		URL:    c.opts.Endpoint("/models"),
		Header: c.header(secret),
	})
	return ai.ProbeStatus(domain.ProviderGemini, resp, err)
}
