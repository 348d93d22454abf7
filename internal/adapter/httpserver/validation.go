package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const maxCallerIDLen = 128

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

type chatMessage struct {
	Role    string          `json:"role" validate:"required,oneof=user assistant developer system"`
	Content json.RawMessage `json:"content" validate:"required"`
}

type chatRequest struct {
	Messages    []chatMessage     `json:"messages" validate:"required,min=1,max=256,dive"`
	Provider    string            `json:"provider" validate:"omitempty,max=32"`
	Strict      bool              `json:"strict"`
	Stream      bool              `json:"stream"`
	Credentials map[string]string `json:"credentials" validate:"omitempty,max=8,dive,keys,required,max=32,endkeys,max=512"`
}

type keysCheckRequest struct {
	Credentials map[string]string `json:"credentials" validate:"omitempty,max=8,dive,keys,required,max=32,endkeys,max=512"`
}

// validationDetails flattens validator errors into field -> tag.
func validationDetails(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[strings.ToLower(fe.Namespace())] = fe.Tag()
		}
	}
	return out
}

// messageContent accepts a JSON string or a structured array of parts. The
// array is passed on as its compact JSON text for the normalizer.
func messageContent(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: content required", domain.ErrInvalidArgument)
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%w: content: %v", domain.ErrInvalidArgument, err)
		}
		return s, nil
	case '[':
		var b bytes.Buffer
		if err := json.Compact(&b, trimmed); err != nil {
			return "", fmt.Errorf("%w: content: %v", domain.ErrInvalidArgument, err)
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("%w: content must be a string or an array of parts", domain.ErrInvalidArgument)
}

func toRole(s string) domain.Role {
	if s == "system" {
		return domain.RoleDeveloper
	}
	return domain.Role(s)
}

// parseCredentials validates provider ids. Blank secrets are kept so the
// environment fallback can fill them in.
func parseCredentials(in map[string]string) (domain.CredentialSet, error) {
	out := make(domain.CredentialSet, len(in))
	for k, v := range in {
		p, err := domain.ParseProvider(k)
		if err != nil {
			return nil, fmt.Errorf("credentials: %w", err)
		}
		out[p] = v
	}
	return out, nil
}

// parsePreference maps "" and "auto" to no preference.
func parsePreference(s string) (domain.ProviderID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return "", nil
	}
	return domain.ParseProvider(s)
}

// callerID sanitizes the X-User-Id header.
func callerID(h string) string {
	h = strings.TrimSpace(strings.ReplaceAll(h, "\x00", ""))
	if !utf8.ValidString(h) {
		h = strings.ToValidUTF8(h, "")
	}
	if len(h) > maxCallerIDLen {
		h = h[:maxCallerIDLen]
	}
	return h
}

// toRoutingRequest converts a validated chat body.
func (c chatRequest) toRoutingRequest() (domain.RoutingRequest, error) {
	pref, err := parsePreference(c.Provider)
	if err != nil {
		return domain.RoutingRequest{}, err
	}
	creds, err := parseCredentials(c.Credentials)
	if err != nil {
		return domain.RoutingRequest{}, err
	}
	msgs := make([]domain.Message, len(c.Messages))
	for i, m := range c.Messages {
		content, err := messageContent(m.Content)
		if err != nil {
			return domain.RoutingRequest{}, fmt.Errorf("messages[%d]: %w", i, err)
		}
		msgs[i] = domain.Message{Role: toRole(m.Role), Content: content}
	}
	return domain.RoutingRequest{
		Credentials:       creds,
		Messages:          msgs,
		PreferredProvider: pref,
		Strict:            c.Strict,
		Stream:            c.Stream,
	}, nil
}
