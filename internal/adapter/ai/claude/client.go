// Package claude implements the Anthropic Messages API client.
package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const (
	apiVersion = "2023-06-01"
	// statusOverloaded is Anthropic's non-standard "overloaded" status.
	statusOverloaded = 529
)

// Client implements domain.ProviderClient and domain.KeyProber.
type Client struct {
	opts ai.ClientOptions
	http *ai.HTTPClient
}

// New constructs the Claude client.
func New(opts ai.ClientOptions) *Client {
	return &Client{opts: opts, http: ai.NewHTTPClient(domain.ProviderClaude, opts.Timeout, opts.Transport)}
}

func (c *Client) ID() domain.ProviderID { return domain.ProviderClaude }

func (c *Client) Model() string { return c.opts.Model }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) buildRequest(msgs []domain.Message, stream bool) messagesRequest {
	var system []string
	wire := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleDeveloper {
			system = append(system, m.Content)
			continue
		}
		wire = append(wire, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return messagesRequest{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		System:      strings.Join(system, "\n\n"),
		Messages:    wire,
		Temperature: c.opts.Temperature,
		Stream:      stream,
	}
}

func header(secret string) http.Header {
	return http.Header{
		"x-api-key":         {secret},
		"anthropic-version": {apiVersion},
	}
}

// Send performs one Messages API call.
func (c *Client) Send(ctx context.Context, secret string, msgs []domain.Message, stream bool) (domain.Completion, error) {
	resp, err := c.http.Do(ctx, ai.Request{
		Op:      "chat",
		Method:  http.MethodPost,
		URL:     c.opts.Endpoint("/messages"),
		Header:  header(secret),
		Payload: c.buildRequest(msgs, stream),
		Stream:  stream,
	})
	if err != nil {
		return domain.Completion{}, err
	}
	if !resp.OK() {
		return domain.Completion{}, classify(resp.Status, resp.Body)
	}
	if resp.Stream != nil {
		return domain.Completion{Provider: domain.ProviderClaude, Model: c.opts.Model, Stream: ai.NewSSEStream(resp.Stream, extractEvent)}, nil
	}

	var out messagesResponse
	if err := ai.DecodeJSON(domain.ProviderClaude, resp.Body, &out); err != nil {
		return domain.Completion{}, err
	}
	var b strings.Builder
	for _, blk := range out.Content {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return domain.Completion{}, ai.EmptyContent(domain.ProviderClaude)
	}
	return domain.Completion{Provider: domain.ProviderClaude, Model: c.opts.Model, Text: b.String()}, nil
}

// classify applies Anthropic-specific statuses before the shared rules.
func classify(status int, body []byte) *domain.ProviderError {
	msg, typ := ai.ParseErrorBody(status, body)
	lmsg, ltyp := strings.ToLower(msg), strings.ToLower(typ)
	switch {
	case status == statusOverloaded || strings.Contains(ltyp, "overloaded_error"):
		return domain.NewProviderError(domain.ProviderClaude, domain.KindTransient, status, msg)
	case status == http.StatusNotFound && strings.Contains(ltyp, "not_found_error") && strings.Contains(lmsg, "model"):
		return domain.NewProviderError(domain.ProviderClaude, domain.KindNoModelAccess, status, msg)
	}
	return domain.NewProviderError(domain.ProviderClaude, ai.Classify(status, msg, typ), status, msg)
}

func extractEvent(data []byte) (string, bool, error) {
	var ev streamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, nil
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" {
			return ev.Delta.Text, false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		kind := ai.Classify(0, ev.Error.Message, ev.Error.Type)
		if strings.Contains(ev.Error.Type, "overloaded_error") {
			kind = domain.KindTransient
		}
		return "", false, domain.NewProviderError(domain.ProviderClaude, kind, 0, ev.Error.Message)
	}
	return "", false, nil
}

// ProbeKey sends a one-token message; Anthropic has no free authenticated
// listing call that every key tier can reach.
func (c *Client) ProbeKey(ctx context.Context, secret string) domain.KeyStatus {
	resp, err := c.http.Do(ctx, ai.Request{
		Op:     "probe",
		Method: http.MethodPost,
		URL:    c.opts.Endpoint("/messages"),
		Header: header(secret),
		Payload: messagesRequest{
			Model:     c.opts.Model,
			MaxTokens: 1,
			Messages:  []wireMessage{{Role: string(domain.RoleUser), Content: "test"}},
		},
	})
	if err == nil && !resp.OK() && classify(resp.Status, resp.Body).Kind == domain.KindTransient {
		return domain.KeyError
	}
	return ai.ProbeStatus(domain.ProviderClaude, resp, err)
}
