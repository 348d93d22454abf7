package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// ProviderID identifies one inference backend.
type ProviderID string

// Known providers. DefaultPriority lists them fastest/cheapest first.
const (
	ProviderGroq   ProviderID = "groq"
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
	ProviderClaude ProviderID = "claude"
)

// DefaultPriority is the built-in provider order used when no routing
// configuration overrides it.
var DefaultPriority = []ProviderID{ProviderGroq, ProviderOpenAI, ProviderGemini, ProviderClaude}

// KnownProviders returns a copy of the closed provider set in default priority order.
func KnownProviders() []ProviderID {
	out := make([]ProviderID, len(DefaultPriority))
	copy(out, DefaultPriority)
	return out
}

// ParseProvider validates a provider identifier. It is case-insensitive and
// trims surrounding spaces.
func ParseProvider(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range DefaultPriority {
		if p == id {
			return id, nil
		}
	}
	return "", &UnknownProviderError{Name: s}
}

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleDeveloper carries system/instruction content.
	RoleDeveloper Role = "developer"
)

// Message is one conversation turn. Content is plain text, or the serialized
// JSON form of a multi-part value before normalization.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CredentialSet maps providers to secrets. A missing or empty secret means the
// provider is unavailable. It is request-scoped and never persisted.
type CredentialSet map[ProviderID]string

// Secret returns the trimmed secret for p and whether it is usable.
func (c CredentialSet) Secret(p ProviderID) (string, bool) {
	if c == nil {
		return "", false
	}
	s := strings.TrimSpace(c[p])
	return s, s != ""
}

// Has reports whether a usable secret exists for p.
func (c CredentialSet) Has(p ProviderID) bool {
	_, ok := c.Secret(p)
	return ok
}

// Available lists providers with usable secrets in the given order.
func (c CredentialSet) Available(order []ProviderID) []ProviderID {
	out := make([]ProviderID, 0, len(order))
	for _, p := range order {
		if c.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// WithFallback returns a new set where providers missing from c take their
// secret from fallback. Neither input is modified.
func (c CredentialSet) WithFallback(fallback CredentialSet) CredentialSet {
	out := make(CredentialSet, len(c)+len(fallback))
	for p, s := range fallback {
		if strings.TrimSpace(s) != "" {
			out[p] = s
		}
	}
	for p, s := range c {
		if strings.TrimSpace(s) != "" {
			out[p] = s
		}
	}
	return out
}

// RoutingRequest is the input of one routing invocation.
type RoutingRequest struct {
	Credentials CredentialSet
	Messages    []Message
	// PreferredProvider is empty for "auto".
	PreferredProvider ProviderID
	// Strict pins PreferredProvider; only credit exhaustion may fall back.
	Strict bool
	Stream bool
	// CallerID identifies the end user for usage logging; may be empty.
	CallerID string
}

// Completion is a successful provider result: either Text or Stream is set.
type Completion struct {
	Provider ProviderID
	Model    string
	Text     string
	// Stream yields plain text chunks. The consumer must Close it.
	Stream io.ReadCloser
}

// IsStream reports whether the completion is streamed.
func (c Completion) IsStream() bool { return c.Stream != nil }

// Selection is the result of the default provider policy.
type Selection struct {
	Provider ProviderID
	Secret   string
}

// KeyStatus is the outcome of probing a provider key.
type KeyStatus string

const (
	KeyWorking KeyStatus = "working"
	KeyInvalid KeyStatus = "invalid"
	KeyError   KeyStatus = "error"
)

// UsageEvent is emitted once per successful routed call.
type UsageEvent struct {
	ID           string     `json:"id"`
	Provider     ProviderID `json:"provider"`
	Model        string     `json:"model"`
	CallerID     string     `json:"caller_id"`
	Streamed     bool       `json:"streamed"`
	Attempts     int        `json:"attempts"`
	PromptTokens int        `json:"prompt_tokens"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// Ports

//go:generate mockery --name=ProviderClient --structname=MockProviderClient --output=mocks --outpkg=mocks --filename=provider_client_mock.go
//go:generate mockery --name=KeyProber --structname=MockKeyProber --output=mocks --outpkg=mocks --filename=key_prober_mock.go
//go:generate mockery --name=UsageRecorder --structname=MockUsageRecorder --output=mocks --outpkg=mocks --filename=usage_recorder_mock.go
//go:generate mockery --name=KeyStatusCache --structname=MockKeyStatusCache --output=mocks --outpkg=mocks --filename=key_status_cache_mock.go

// ProviderClient performs one call against a single backend. Failures are
// returned as *ProviderError already classified.
type ProviderClient interface {
	ID() ProviderID
	Model() string
	Send(ctx context.Context, secret string, msgs []Message, stream bool) (Completion, error)
}

// KeyProber checks whether a secret is accepted by a backend.
type KeyProber interface {
	ID() ProviderID
	ProbeKey(ctx context.Context, secret string) KeyStatus
}

// UsageRecorder receives usage notifications. Errors are never propagated to
// routing callers.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, ev UsageEvent) error
}

// KeyStatusCache stores probe results keyed by a fingerprint of the secret.
type KeyStatusCache interface {
	Get(ctx context.Context, p ProviderID, secret string) (KeyStatus, bool, error)
	Set(ctx context.Context, p ProviderID, secret string, st KeyStatus) error
}

// TokenCounter estimates prompt size for usage events.
type TokenCounter interface {
	CountMessages(msgs []Message, model string) (int, error)
}
