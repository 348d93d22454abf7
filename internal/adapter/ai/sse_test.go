package ai

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error { c.closed = true; return nil }

func textField(data []byte) (string, bool, error) {
	var v struct {
		Text string `json:"text"`
		Stop bool   `json:"stop"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", false, nil
	}
	return v.Text, v.Stop, nil
}

func TestSSEStream_ReassemblesText(t *testing.T) {
	raw := "event: x\n" +
		"data: {\"text\":\"Hel\"}\n\n" +
		": comment\n" +
		"data: not-json\n\n" +
		"data:{\"text\":\"lo\"}\n\n" +
		"data: [DONE]\n\n" +
		"data: {\"text\":\"ignored\"}\n\n"
	body := &closeTracker{Reader: strings.NewReader(raw)}

	s := NewSSEStream(body, textField)
	b, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(b))

	require.NoError(t, s.Close())
	assert.True(t, body.closed)
	require.NoError(t, s.Close())
}

func TestSSEStream_DoneFromExtractor(t *testing.T) {
	raw := "data: {\"text\":\"a\"}\n\ndata: {\"text\":\"b\",\"stop\":true}\n\ndata: {\"text\":\"c\"}\n\n"
	s := NewSSEStream(io.NopCloser(strings.NewReader(raw)), textField)
	defer s.Close()

	b, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(b))
}

func TestSSEStream_ExtractorError(t *testing.T) {
	boom := errors.New("boom")
	raw := "data: {\"text\":\"a\"}\n\ndata: {}\n\n"
	calls := 0
	s := NewSSEStream(io.NopCloser(strings.NewReader(raw)), func(data []byte) (string, bool, error) {
		calls++
		if calls == 2 {
			return "", false, boom
		}
		return textField(data)
	})
	defer s.Close()

	b, err := io.ReadAll(s)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "a", string(b))
}

func TestSSEStream_CloseEarly(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewSSEStream(pr, textField)

	go func() { _, _ = pw.Write([]byte("data: {\"text\":\"x\"}\n\n")) }()
	buf := make([]byte, 1)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Close())
	_, err = s.Read(buf)
	assert.Error(t, err)
}
