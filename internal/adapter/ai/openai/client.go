// Package openai implements the OpenAI chat completions client. Groq speaks
// the same protocol and is served by the same client with its own dialect.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// dialect captures the few places Groq differs from OpenAI.
type dialect struct {
	// developerRole is the wire role for developer messages.
	developerRole string
	// completionTokensField selects max_completion_tokens over max_tokens.
	completionTokensField bool
}

var (
	openAIDialect = dialect{developerRole: "developer", completionTokensField: true}
	groqDialect   = dialect{developerRole: "system"}
)

// Client implements domain.ProviderClient and domain.KeyProber.
type Client struct {
	id      domain.ProviderID
	opts    ai.ClientOptions
	dialect dialect
	http    *ai.HTTPClient
}

// New constructs the OpenAI client.
func New(opts ai.ClientOptions) *Client {
	return newClient(domain.ProviderOpenAI, opts, openAIDialect)
}

// NewGroq constructs the Groq client.
func NewGroq(opts ai.ClientOptions) *Client {
	return newClient(domain.ProviderGroq, opts, groqDialect)
}

func newClient(id domain.ProviderID, opts ai.ClientOptions, d dialect) *Client {
	return &Client{
		id:      id,
		opts:    opts,
		dialect: d,
		http:    ai.NewHTTPClient(id, opts.Timeout, opts.Transport),
	}
}

func (c *Client) ID() domain.ProviderID { return c.id }

func (c *Client) Model() string { return c.opts.Model }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []wireMessage `json:"messages"`
	Stream              bool          `json:"stream"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *Client) buildRequest(msgs []domain.Message, stream bool) chatRequest {
	wire := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		role := string(m.Role)
		if m.Role == domain.RoleDeveloper {
			role = c.dialect.developerRole
		}
		wire = append(wire, wireMessage{Role: role, Content: m.Content})
	}
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    wire,
		Stream:      stream,
		Temperature: c.opts.Temperature,
	}
	if c.dialect.completionTokensField {
		req.MaxCompletionTokens = c.opts.MaxTokens
	} else {
		req.MaxTokens = c.opts.MaxTokens
	}
	return req
}

func (c *Client) authHeader(secret string) http.Header {
	return http.Header{"Authorization": {"Bearer " + secret}}
}

// Send performs one chat completion.
func (c *Client) Send(ctx context.Context, secret string, msgs []domain.Message, stream bool) (domain.Completion, error) {
	resp, err := c.http.Do(ctx, ai.Request{
		Op:      "chat",
		Method:  http.MethodPost,
		URL:     c.opts.Endpoint("/chat/completions"),
		Header:  c.authHeader(secret),
		Payload: c.buildRequest(msgs, stream),
		Stream:  stream,
	})
	if err != nil {
		return domain.Completion{}, err
	}
	if !resp.OK() {
		return domain.Completion{}, ai.FailureFromResponse(c.id, resp.Status, resp.Body)
	}
	if resp.Stream != nil {
		return domain.Completion{Provider: c.id, Model: c.opts.Model, Stream: ai.NewSSEStream(resp.Stream, extractDelta)}, nil
	}

	var out chatResponse
	if err := ai.DecodeJSON(c.id, resp.Body, &out); err != nil {
		return domain.Completion{}, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return domain.Completion{}, ai.EmptyContent(c.id)
	}
	if out.Model != "" && !strings.HasPrefix(out.Model, c.opts.Model) {
		slog.Debug("provider answered with a different model",
			slog.String("provider", string(c.id)),
			slog.String("requested_model", c.opts.Model),
			slog.String("actual_model", out.Model))
	}
	return domain.Completion{Provider: c.id, Model: c.opts.Model, Text: out.Choices[0].Message.Content}, nil
}

func extractDelta(data []byte) (string, bool, error) {
	var chunk streamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, nil
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}

// ProbeKey lists models with the key, which needs auth but costs nothing.
func (c *Client) ProbeKey(ctx context.Context, secret string) domain.KeyStatus {
	resp, err := c.http.Do(ctx, ai.Request{
		Op:     "probe",
		Method: http.MethodGet,
		URL:    c.opts.Endpoint("/models"),
		Header: c.authHeader(secret),
	})
	return ai.ProbeStatus(c.id, resp, err)
}
