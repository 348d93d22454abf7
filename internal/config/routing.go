package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// ProviderSettings are the generation parameters a provider client applies to
// every call.
type ProviderSettings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Routing is the deployment's provider catalog: default priority plus
// per-provider settings.
type Routing struct {
	Priority  []domain.ProviderID                      `yaml:"-"`
	Providers map[domain.ProviderID]ProviderSettings `yaml:"-"`
}

type routingYAML struct {
	Priority  []string                `yaml:"priority"`
	Providers map[string]providerYAML `yaml:"providers"`
}

// providerYAML keeps temperature as a pointer so an explicit 0 is not
// mistaken for "unset".
type providerYAML struct {
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// DefaultRouting returns the built-in catalog.
func DefaultRouting() Routing {
	return Routing{
		Priority: domain.KnownProviders(),
		Providers: map[domain.ProviderID]ProviderSettings{
			domain.ProviderGroq:   {Model: "groq/compound-mini", MaxTokens: 4096, Temperature: 0.7},
			domain.ProviderOpenAI: {Model: "gpt-4o-mini", MaxTokens: 4096, Temperature: 0.7},
			domain.ProviderGemini: {Model: "gemini-2.5-flash", MaxTokens: 2048, Temperature: 0.7},
			domain.ProviderClaude: {Model: "claude-3-haiku-20240307", MaxTokens: 4096, Temperature: 0.7},
		},
	}
}

// Settings returns the settings for p, falling back to the built-in values.
func (r Routing) Settings(p domain.ProviderID) ProviderSettings {
	if s, ok := r.Providers[p]; ok {
		return s
	}
	return DefaultRouting().Providers[p]
}

// LoadRouting reads the YAML catalog at path. An empty path yields the
// defaults. Settings left zero in the file inherit the defaults.
func LoadRouting(path string) (Routing, error) {
	if path == "" {
		return DefaultRouting(), nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Routing{}, fmt.Errorf("op=config.LoadRouting: %w", err)
	}
	// #nosec G304 -- Configuration files are expected to be safe
	content, err := os.ReadFile(absPath)
	if err != nil {
		return Routing{}, fmt.Errorf("op=config.LoadRouting: %w", err)
	}
	return ParseRouting(content)
}

// ParseRouting decodes a YAML catalog and validates provider identifiers.
func ParseRouting(content []byte) (Routing, error) {
	var raw routingYAML
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return Routing{}, fmt.Errorf("op=config.ParseRouting: %w: %v", domain.ErrInvalidArgument, err)
	}

	out := DefaultRouting()
	if len(raw.Priority) > 0 {
		seen := make(map[domain.ProviderID]bool, len(raw.Priority))
		prio := make([]domain.ProviderID, 0, len(raw.Priority))
		for _, name := range raw.Priority {
			p, err := domain.ParseProvider(name)
			if err != nil {
				return Routing{}, fmt.Errorf("op=config.ParseRouting: %w", err)
			}
			if seen[p] {
				return Routing{}, fmt.Errorf("op=config.ParseRouting: %w: duplicate provider %q in priority", domain.ErrInvalidArgument, p)
			}
			seen[p] = true
			prio = append(prio, p)
		}
		out.Priority = prio
	}

	for name, s := range raw.Providers {
		p, err := domain.ParseProvider(name)
		if err != nil {
			return Routing{}, fmt.Errorf("op=config.ParseRouting: %w", err)
		}
		set := out.Providers[p]
		if s.Model != "" {
			set.Model = s.Model
		}
		if s.MaxTokens > 0 {
			set.MaxTokens = s.MaxTokens
		}
		if s.Temperature != nil {
			if *s.Temperature < 0 {
				return Routing{}, fmt.Errorf("op=config.ParseRouting: %w: negative temperature for %s", domain.ErrInvalidArgument, p)
			}
			set.Temperature = *s.Temperature
		}
		out.Providers[p] = set
	}
	return out, nil
}
