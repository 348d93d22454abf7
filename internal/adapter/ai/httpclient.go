package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/observability"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const (
	snippetBytes = 512
	// maxResponseBytes bounds buffered (non-streaming) response bodies.
	maxResponseBytes = 4 << 20
	// maxIdleConnsPerHost sizes the pool for fallback bursts to one endpoint.
	maxIdleConnsPerHost = 32
)

var (
	sharedTransportOnce sync.Once
	sharedTransport     *http.Transport
)

// defaultTransport is a clone of http.DefaultTransport with a larger per-host
// idle pool, shared by every client that does not bring its own.
func defaultTransport() *http.Transport {
	sharedTransportOnce.Do(func() {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConns = 4 * maxIdleConnsPerHost
		t.MaxIdleConnsPerHost = maxIdleConnsPerHost
		sharedTransport = t
	})
	return sharedTransport
}

var errTimedOut = errors.New("timed out")

// Snippet returns at most 512 bytes of b for logs and fallback messages.
func Snippet(b []byte) string {
	if len(b) > snippetBytes {
		return string(b[:snippetBytes])
	}
	return string(b)
}

// Response is a provider reply. Exactly one of Body or Stream is set; Stream
// is only used for 2xx replies when streaming was requested.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Stream io.ReadCloser
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// HTTPClient executes provider requests under a fixed timeout with metrics,
// tracing and transport-failure classification.
type HTTPClient struct {
	provider domain.ProviderID
	hc       *http.Client
	timeout  time.Duration
	tracer   trace.Tracer
}

// NewHTTPClient builds an executor for provider p. A nil base uses a shared
// pooled transport; it is always wrapped with otelhttp.
func NewHTTPClient(p domain.ProviderID, timeout time.Duration, base http.RoundTripper) *HTTPClient {
	if base == nil {
		base = defaultTransport()
	}
	return &HTTPClient{
		provider: p,
		hc:       &http.Client{Transport: otelhttp.NewTransport(base)},
		timeout:  timeout,
		tracer:   otel.Tracer("ai." + string(p)),
	}
}

// Timeout returns the per-call bound.
func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

// Request describes one outbound call.
type Request struct {
	// Op labels metrics and spans, e.g. "chat" or "probe".
	Op      string
	Method  string
	URL     string
	Header  http.Header
	Payload any
	Stream  bool
}

// Do performs req. The timeout covers connecting, waiting for headers and,
// for buffered replies, reading the body. For streamed 2xx replies the timer
// stops once headers arrive and closing the stream cancels the request.
// Transport failures come back as *domain.ProviderError of kind Transient.
func (c *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, &domain.ProviderError{Provider: c.provider, Kind: domain.KindFatal, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(b)
	}

	ctx, span := c.tracer.Start(ctx, "ai."+req.Op, trace.WithAttributes(
		attribute.String("ai.provider", string(c.provider)),
		attribute.Bool("ai.stream", req.Stream),
	))
	defer span.End()

	ctx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(c.timeout, func() { cancel(errTimedOut) })

	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		timer.Stop()
		cancel(nil)
		return nil, &domain.ProviderError{Provider: c.provider, Kind: domain.KindFatal, Message: "build request", Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if req.Payload != nil {
		hr.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(hr)
	observability.ObserveProviderCall(string(c.provider), req.Op, time.Since(start))
	if err != nil {
		timer.Stop()
		cause := context.Cause(ctx)
		cancel(nil)
		perr := c.transportFailure(err, cause)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Kind.String())
		return nil, perr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if req.Stream && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		timer.Stop()
		return &Response{
			Status: resp.StatusCode,
			Header: resp.Header,
			Stream: &cancelOnClose{ReadCloser: resp.Body, cancel: func() { cancel(context.Canceled) }},
		}, nil
	}

	defer func() {
		timer.Stop()
		cancel(nil)
		_ = resp.Body.Close()
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		perr := c.transportFailure(err, context.Cause(ctx))
		span.RecordError(perr)
		return nil, perr
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		observability.LoggerFromContext(ctx).Warn("ai provider non-2xx",
			slog.String("provider", string(c.provider)),
			slog.String("op", req.Op),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", observability.RequestIDFromContext(ctx)),
			slog.String("body", Snippet(b)))
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func (c *HTTPClient) transportFailure(err, cause error) *domain.ProviderError {
	if errors.Is(cause, errTimedOut) {
		return &domain.ProviderError{Provider: c.provider, Kind: domain.KindTransient, Message: "timed out", Err: err}
	}
	return &domain.ProviderError{Provider: c.provider, Kind: domain.KindTransient, Message: fmt.Sprintf("network error: %v", err), Err: err}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel func()
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// DecodeJSON unmarshals a successful body; failures are Fatal since the
// provider answered but with no usable content.
func DecodeJSON(p domain.ProviderID, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ProviderError{Provider: p, Kind: domain.KindFatal, Message: "provider returned no usable content", Err: err}
	}
	return nil
}

// EmptyContent is the Fatal failure for a 2xx reply without text.
func EmptyContent(p domain.ProviderID) *domain.ProviderError {
	return domain.NewProviderError(p, domain.KindFatal, http.StatusOK, "provider returned no usable content")
}
