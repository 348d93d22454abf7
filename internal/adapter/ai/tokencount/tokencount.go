// Package tokencount estimates prompt sizes for usage events.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken, with the BPE ranks
// embedded through tiktoken-go-loader so no encoding is ever downloaded.
// Non-OpenAI models are approximated with cl100k_base.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// Per-message framing overhead used by chat-style APIs.
const (
	tokensPerMessage = 3
	replyPriming     = 3
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	enc, ok := c.encodingCache[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// normalizeModelName maps provider model ids onto tiktoken-known names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		return "gpt-4"
	}
}

// CountTokens counts the tokens of text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountMessages estimates the prompt size of a conversation, including role
// and framing overhead. On encoder failure it falls back to ~4 chars per token.
func (c *Counter) CountMessages(msgs []domain.Message, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		n := 0
		for _, m := range msgs {
			n += len(m.Content) / 4
		}
		return n, err
	}
	n := replyPriming
	for _, m := range msgs {
		n += tokensPerMessage
		n += len(enc.Encode(string(m.Role), nil, nil))
		n += len(enc.Encode(m.Content, nil, nil))
	}
	return n, nil
}
