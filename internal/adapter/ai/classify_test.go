package ai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		errType string
		want    domain.ErrorKind
	}{
		{"payment required", http.StatusPaymentRequired, "", "", domain.KindInsufficientCredit},
		{"403 insufficient quota beats model access", http.StatusForbidden, "Insufficient quota: model not available", "", domain.KindInsufficientCredit},
		{"401 billing inactive", http.StatusUnauthorized, "Billing is not active for this account", "", domain.KindInsufficientCredit},
		{"credit type on 429", http.StatusTooManyRequests, "You exceeded your current plan", "insufficient_quota", domain.KindInsufficientCredit},
		{"claude low balance", http.StatusBadRequest, "Your credit balance is too low to access the API", "invalid_request_error", domain.KindInsufficientCredit},
		{"401 plain", http.StatusUnauthorized, "Unauthorized", "", domain.KindInvalidKey},
		{"400 gemini bad key", http.StatusBadRequest, "API key not valid. Please pass a valid API key.", "INVALID_ARGUMENT", domain.KindInvalidKey},
		{"auth type", http.StatusForbidden, "nope", "authentication_error", domain.KindInvalidKey},
		{"403 model access", http.StatusForbidden, "The model `gpt-4o` does not have access for project", "", domain.KindNoModelAccess},
		{"403 generic", http.StatusForbidden, "Forbidden", "", domain.KindFatal},
		{"429", http.StatusTooManyRequests, "slow down", "", domain.KindRateLimited},
		{"rate vocabulary", http.StatusBadRequest, "Rate limit reached for requests", "", domain.KindRateLimited},
		{"rate type", http.StatusBadRequest, "x", "rate_limit_error", domain.KindRateLimited},
		{"502", http.StatusBadGateway, "Bad Gateway", "", domain.KindTransient},
		{"504", http.StatusGatewayTimeout, "", "", domain.KindTransient},
		{"400 other", http.StatusBadRequest, "messages: field required", "invalid_request_error", domain.KindFatal},
		{"404", http.StatusNotFound, "not found", "", domain.KindFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status, tt.message, tt.errType))
		})
	}
}

func TestParseErrorBody(t *testing.T) {
	msg, typ := ParseErrorBody(429, []byte(`{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
	assert.Equal(t, "quota", msg)
	assert.Equal(t, "insufficient_quota insufficient_quota", typ)

	msg, typ = ParseErrorBody(429, []byte(`{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	assert.Equal(t, "Resource exhausted", msg)
	assert.Equal(t, "RESOURCE_EXHAUSTED", typ)

	msg, typ = ParseErrorBody(502, []byte("<html>bad gateway</html>"))
	assert.Equal(t, "<html>bad gateway</html>", msg)
	assert.Empty(t, typ)

	msg, _ = ParseErrorBody(503, nil)
	assert.Equal(t, "Service Unavailable", msg)
}

func TestFailureFromResponse(t *testing.T) {
	perr := FailureFromResponse(domain.ProviderOpenAI, 401, []byte(`{"error":{"message":"Incorrect API key provided"}}`))
	assert.Equal(t, domain.KindInvalidKey, perr.Kind)
	assert.Equal(t, 401, perr.Status)
	assert.ErrorIs(t, perr, domain.ErrInvalidKey)
	assert.Equal(t, "openai error: Incorrect API key provided", perr.Error())
}
