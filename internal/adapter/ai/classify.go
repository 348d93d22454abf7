// Package ai holds the pieces every provider client shares: failure
// classification, the instrumented HTTP executor and the SSE text stream.
package ai

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

var (
	creditPhrases = []string{
		"insufficient_quota",
		"insufficient_funds",
		"insufficient credits",
		"insufficient credit",
		"insufficient balance",
		"billing_not_active",
		"no active billing",
		"quota exceeded",
		"payment required",
		"credit balance is too low",
		"upgrade or purchase credits",
	}
	creditNouns    = []string{"quota", "funds", "credit", "balance"}
	billingStates  = []string{"not active", "disabled", "inactive"}
	creditTypes    = []string{"insufficient_quota", "billing_error", "quota", "billing"}
	invalidPhrases = []string{
		"invalid api key",
		"invalid_api_key",
		"api key not found",
		"authentication failed",
		"api key not valid",
		"incorrect api key",
	}
	invalidTypes       = []string{"invalid_api_key", "authentication_error"}
	modelAccessPhrases = []string{"not available", "not accessible", "does not have access"}
	ratePhrases        = []string{"rate limit", "rate_limit", "too many requests"}
	rateTypes          = []string{"rate_limit_exceeded", "rate_limit_error"}
)

// Classify maps an HTTP failure onto the shared error vocabulary. Checks run
// in a fixed order and the first match wins; credit exhaustion is tested
// before authentication because some backends answer "no billing" with 401/403.
func Classify(status int, message, errType string) domain.ErrorKind {
	msg := strings.ToLower(message)
	typ := strings.ToLower(errType)

	switch {
	case IsCreditFailure(status, msg, typ):
		return domain.KindInsufficientCredit
	case status == http.StatusUnauthorized || containsAny(msg, invalidPhrases...) || containsAny(typ, invalidTypes...):
		return domain.KindInvalidKey
	case status == http.StatusForbidden && strings.Contains(msg, "model") && containsAny(msg, modelAccessPhrases...):
		return domain.KindNoModelAccess
	case status == http.StatusTooManyRequests || containsAny(msg, ratePhrases...) || containsAny(typ, rateTypes...):
		return domain.KindRateLimited
	case IsTransientStatus(status):
		return domain.KindTransient
	}
	return domain.KindFatal
}

// IsCreditFailure reports credit, billing or quota exhaustion. msg and typ
// must already be lower-cased.
func IsCreditFailure(status int, msg, typ string) bool {
	if status == http.StatusPaymentRequired {
		return true
	}
	if containsAny(msg, creditPhrases...) {
		return true
	}
	if strings.Contains(msg, "insufficient") && containsAny(msg, creditNouns...) {
		return true
	}
	if strings.Contains(msg, "billing") && containsAny(msg, billingStates...) {
		return true
	}
	return containsAny(typ, creditTypes...)
}

// IsTransientStatus reports upstream outage statuses.
func IsTransientStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ErrorBody is the common {"error":{...}} envelope. Gemini reports its
// canonical code in Status rather than Type; OpenAI adds a string Code.
type ErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Status  string `json:"status"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ParseErrorBody extracts the message and a space-joined type/status/code
// string from an error response. An unparseable body falls back to a bounded
// raw snippet and then to the status text.
func ParseErrorBody(status int, body []byte) (message, errType string) {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		message = eb.Error.Message
		parts := make([]string, 0, 3)
		for _, s := range []string{eb.Error.Type, eb.Error.Status} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		if code, ok := eb.Error.Code.(string); ok && code != "" {
			parts = append(parts, code)
		}
		errType = strings.Join(parts, " ")
	}
	if message == "" {
		message = strings.TrimSpace(Snippet(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return message, errType
}

// FailureFromResponse classifies a non-2xx response into a ProviderError.
func FailureFromResponse(p domain.ProviderID, status int, body []byte) *domain.ProviderError {
	msg, typ := ParseErrorBody(status, body)
	return domain.NewProviderError(p, Classify(status, msg, typ), status, msg)
}
