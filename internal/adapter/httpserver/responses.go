package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// StatusClientClosedRequest is the non-standard status logged when the caller
// goes away before a result is ready.
const StatusClientClosedRequest = 499

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type attemptDetail struct {
	Provider domain.ProviderID `json:"provider"`
	Kind     string            `json:"kind"`
	Status   int               `json:"status,omitempty"`
	Message  string            `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNoCredentialAvailable):
		return http.StatusBadRequest, "NO_CREDENTIAL"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "CANCELED"
	case errors.Is(err, domain.ErrProviderFailed):
		return http.StatusBadGateway, "PROVIDER_FAILED"
	case errors.Is(err, domain.ErrInsufficientCredit):
		return http.StatusPaymentRequired, "INSUFFICIENT_CREDIT"
	case errors.Is(err, domain.ErrAllProvidersFailed):
		return http.StatusBadGateway, "ALL_PROVIDERS_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// errorDetails exposes the classified provider failures, never secrets.
func errorDetails(err error) any {
	var exhausted *domain.ExhaustedError
	if errors.As(err, &exhausted) {
		out := make([]attemptDetail, len(exhausted.Attempts))
		for i, a := range exhausted.Attempts {
			out[i] = detailOf(a)
		}
		return map[string]any{"attempts": out}
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return detailOf(perr)
	}
	return nil
}

func detailOf(p *domain.ProviderError) attemptDetail {
	return attemptDetail{Provider: p.Provider, Kind: p.Kind.String(), Status: p.Status, Message: p.Message}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status, code := statusFor(err)
	if details == nil {
		details = errorDetails(err)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		LoggerFrom(r).Error("request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: msg, Details: details}})
}
