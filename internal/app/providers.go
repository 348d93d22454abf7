package app

import (
	"net/http"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai/claude"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai/openai"
	"github.com/fairyhunter13/ai-provider-router/internal/config"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// Provider is a backend client that can also probe keys.
type Provider interface {
	domain.ProviderClient
	domain.KeyProber
}

// BuildProviders constructs one client per provider in the routing priority,
// using the configured base URL, timeout and generation settings. transport
// may be nil.
func BuildProviders(cfg config.Config, routing config.Routing, transport http.RoundTripper) []Provider {
	out := make([]Provider, 0, len(routing.Priority))
	for _, p := range routing.Priority {
		s := routing.Settings(p)
		opts := ai.ClientOptions{
			BaseURL:     cfg.BaseURL(p),
			Model:       s.Model,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
			Timeout:     cfg.ProviderTimeout,
			Transport:   transport,
		}
		switch p {
		case domain.ProviderGroq:
			out = append(out, openai.NewGroq(opts))
		case domain.ProviderOpenAI:
			out = append(out, openai.New(opts))
		case domain.ProviderGemini:
			out = append(out, gemini.New(opts))
		case domain.ProviderClaude:
			out = append(out, claude.New(opts))
		}
	}
	return out
}

// Split returns the providers as router clients and key probers.
func Split(ps []Provider) ([]domain.ProviderClient, []domain.KeyProber) {
	clients := make([]domain.ProviderClient, len(ps))
	probers := make([]domain.KeyProber, len(ps))
	for i, p := range ps {
		clients[i] = p
		probers[i] = p
	}
	return clients, probers
}
