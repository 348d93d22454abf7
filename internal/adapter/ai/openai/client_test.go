package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

func testOptions(url string) ai.ClientOptions {
	return ai.ClientOptions{BaseURL: url, Model: "gpt-4o-mini", MaxTokens: 4096, Temperature: 0.7, Timeout: 2 * time.Second}
}

var conversation = []domain.Message{
	{Role: domain.RoleDeveloper, Content: "Be brief."},
	{Role: domain.RoleUser, Content: "Hi"},
	{Role: domain.RoleAssistant, Content: "Hello"},
	{Role: domain.RoleUser, Content: "How are you?"},
}

func TestSend_OpenAI_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 4096, req.MaxCompletionTokens)
		assert.Zero(t, req.MaxTokens)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 4)
		assert.Equal(t, "developer", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[2].Role)

		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini-2024-07-18","choices":[{"message":{"content":"Fine, thanks."}}]}`))
	}))
	defer srv.Close()

	c := New(testOptions(srv.URL))
	assert.Equal(t, domain.ProviderOpenAI, c.ID())
	out, err := c.Send(context.Background(), "sk-test", conversation, false)
	require.NoError(t, err)
	assert.Equal(t, "Fine, thanks.", out.Text)
	assert.Equal(t, domain.ProviderOpenAI, out.Provider)
	assert.False(t, out.IsStream())
}

func TestSend_Groq_MapsDeveloperToSystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Be brief.", req.Messages[0].Content)
		assert.Equal(t, 4096, req.MaxTokens)
		assert.Zero(t, req.MaxCompletionTokens)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.Model = "groq/compound-mini"
	c := NewGroq(opts)
	assert.Equal(t, domain.ProviderGroq, c.ID())
	assert.Equal(t, "groq/compound-mini", c.Model())

	out, err := c.Send(context.Background(), "gsk", conversation, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
}

func TestSend_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorKind
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`, domain.KindInsufficientCredit},
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`, domain.KindInvalidKey},
		{"model access", http.StatusForbidden, `{"error":{"message":"Project does not have access to model gpt-4o-mini"}}`, domain.KindNoModelAccess},
		{"rate", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`, domain.KindRateLimited},
		{"outage", http.StatusServiceUnavailable, `not json`, domain.KindTransient},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad messages"}}`, domain.KindFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(testOptions(srv.URL)).Send(context.Background(), "k", conversation, false)
			require.Error(t, err)
			var perr *domain.ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.want, perr.Kind)
			assert.Equal(t, domain.ProviderOpenAI, perr.Provider)
		})
	}
}

func TestSend_EmptyContentIsFatal(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":"  "}}]}`, `garbage`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := New(testOptions(srv.URL)).Send(context.Background(), "k", conversation, false)
		srv.Close()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrFatal, body)
	}
}

func TestSend_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	out, err := New(testOptions(srv.URL)).Send(context.Background(), "k", conversation, true)
	require.NoError(t, err)
	require.True(t, out.IsStream())
	defer out.Stream.Close()

	b, err := io.ReadAll(out.Stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(b))
}

func TestProbeKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") == "Bearer good" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewGroq(testOptions(srv.URL))
	assert.Equal(t, domain.KeyWorking, c.ProbeKey(context.Background(), "good"))
	assert.Equal(t, domain.KeyInvalid, c.ProbeKey(context.Background(), "bad"))

	srv.Close()
	assert.Equal(t, domain.KeyError, c.ProbeKey(context.Background(), "good"))
}
