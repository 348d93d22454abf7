// Package usecase contains the routing core: message normalization, the
// default selection policy, the fallback router and key checking.
package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// contentPart is one element of structured message content.
type contentPart struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
	MimeType  string `json:"mimeType"`
	Filename  string `json:"filename"`
}

// NormalizeMessages returns a new list of the same length and roles where
// structured content is flattened to plain text. Plain text passes through
// unchanged, so normalizing twice equals normalizing once.
func NormalizeMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		out[i] = domain.Message{Role: m.Role, Content: normalizeContent(m.Content)}
	}
	return out
}

// normalizeContent flattens a serialized array of typed parts. Anything that
// is not such an array is returned as is.
func normalizeContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "[") {
		return content
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil || len(raw) == 0 {
		return content
	}

	parts := make([]contentPart, len(raw))
	for i, r := range raw {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(r, &probe); err != nil {
			return content
		}
		if _, ok := probe["type"]; !ok {
			return content
		}
		// Field type mismatches leave zero values; the part is stringified below.
		_ = json.Unmarshal(r, &parts[i])
	}

	lines := make([]string, 0, len(parts))
	for i, p := range parts {
		switch {
		case p.Type == "text":
			lines = append(lines, p.Text)
		case p.Type == "file" && p.URL != "":
			lines = append(lines, filePlaceholder(p))
		default:
			lines = append(lines, compactJSON(raw[i]))
		}
	}
	return strings.Join(lines, "\n")
}

func filePlaceholder(p contentPart) string {
	mt := p.MediaType
	if mt == "" {
		mt = p.MimeType
	}
	label := ""
	if m := mimetype.Lookup(mt); m != nil && m.Extension() != "" {
		label = strings.TrimPrefix(m.Extension(), ".")
	}
	switch {
	case label != "" && p.Filename != "":
		return fmt.Sprintf("File: %s (%s, %s)", p.URL, p.Filename, label)
	case label != "":
		return fmt.Sprintf("File: %s (%s)", p.URL, label)
	case p.Filename != "":
		return fmt.Sprintf("File: %s (%s)", p.URL, p.Filename)
	}
	return "File: " + p.URL
}

func compactJSON(r json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Compact(&b, r); err != nil {
		return string(r)
	}
	return b.String()
}
