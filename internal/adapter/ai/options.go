package ai

import (
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// ClientOptions configure one provider client. Values are fixed for the
// lifetime of the process.
type ClientOptions struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// Transport overrides http.DefaultTransport, mainly for tests.
	Transport http.RoundTripper
}

// Endpoint joins the base URL and path.
func (o ClientOptions) Endpoint(path string) string {
	return strings.TrimRight(o.BaseURL, "/") + path
}

// ProbeStatus maps a key probe outcome to a KeyStatus. A rate-limited key is
// still a valid key; transport failures and upstream outages are "error".
func ProbeStatus(p domain.ProviderID, resp *Response, err error) domain.KeyStatus {
	if err != nil {
		return domain.KeyError
	}
	if resp.OK() {
		return domain.KeyWorking
	}
	switch FailureFromResponse(p, resp.Status, resp.Body).Kind {
	case domain.KindRateLimited:
		return domain.KeyWorking
	case domain.KindTransient:
		return domain.KeyError
	default:
		return domain.KeyInvalid
	}
}
