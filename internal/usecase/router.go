package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/observability"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const defaultUsageTimeout = 5 * time.Second

// Route outcome labels.
const (
	outcomeSuccess      = "success"
	outcomeNoCredential = "no_credential"
	outcomeStrictStop   = "strict_stop"
	outcomeCredit       = "insufficient_credit"
	outcomeExhausted    = "exhausted"
	outcomeCanceled     = "canceled"
)

// Router tries provider clients in priority order until one succeeds.
// It holds no per-request state and is safe for concurrent use.
type Router struct {
	clients  map[domain.ProviderID]domain.ProviderClient
	priority []domain.ProviderID
	usage    domain.UsageRecorder
	tokens   domain.TokenCounter

	// UsageTimeout bounds each usage notification.
	UsageTimeout time.Duration

	inflight sync.WaitGroup
}

// NewRouter wires the router. priority is the default candidate order and
// must only name providers that have a client. usage and tokens may be nil.
func NewRouter(clients []domain.ProviderClient, priority []domain.ProviderID, usage domain.UsageRecorder, tokens domain.TokenCounter) *Router {
	byID := make(map[domain.ProviderID]domain.ProviderClient, len(clients))
	for _, c := range clients {
		byID[c.ID()] = c
	}
	prio := make([]domain.ProviderID, 0, len(priority))
	for _, p := range priority {
		if _, ok := byID[p]; ok {
			prio = append(prio, p)
		}
	}
	return &Router{clients: byID, priority: prio, usage: usage, tokens: tokens, UsageTimeout: defaultUsageTimeout}
}

// Priority returns the default candidate order.
func (r *Router) Priority() []domain.ProviderID {
	out := make([]domain.ProviderID, len(r.priority))
	copy(out, r.priority)
	return out
}

// candidates builds the ordered provider list before credential filtering.
// In strict mode only the pinned provider is listed; the rest are returned
// separately as reserve for credit exhaustion.
func (r *Router) candidates(req domain.RoutingRequest) (order, reserve []domain.ProviderID) {
	if req.PreferredProvider == "" {
		return r.Priority(), nil
	}
	rest := make([]domain.ProviderID, 0, len(r.priority))
	for _, p := range r.priority {
		if p != req.PreferredProvider {
			rest = append(rest, p)
		}
	}
	if req.Strict {
		return []domain.ProviderID{req.PreferredProvider}, rest
	}
	return append([]domain.ProviderID{req.PreferredProvider}, rest...), nil
}

// Route normalizes the messages once and returns the first successful
// completion. Terminal failures are:
//   - domain.ErrNoCredentialAvailable when no candidate has a secret;
//   - an error wrapping domain.ErrProviderFailed and the *domain.ProviderError
//     when a strictly pinned provider rejects the key, the model or the request;
//   - the *domain.ProviderError itself when the last failure was credit exhaustion;
//   - *domain.ExhaustedError otherwise.
func (r *Router) Route(ctx context.Context, req domain.RoutingRequest) (domain.Completion, error) {
	lg := observability.LoggerFromContext(ctx)

	if req.PreferredProvider != "" {
		if _, ok := r.clients[req.PreferredProvider]; !ok {
			return domain.Completion{}, fmt.Errorf("op=router.route: %w", &domain.UnknownProviderError{Name: string(req.PreferredProvider)})
		}
	}

	order, reserve := r.candidates(req)
	order = req.Credentials.Available(order)
	if len(order) == 0 {
		observability.RouteOutcome(outcomeNoCredential, "", 0)
		if req.Strict && req.PreferredProvider != "" && len(req.Credentials.Available(reserve)) > 0 {
			return domain.Completion{}, fmt.Errorf("op=router.route: %w: no key for selected provider %s", domain.ErrNoCredentialAvailable, req.PreferredProvider)
		}
		return domain.Completion{}, fmt.Errorf("op=router.route: %w", domain.ErrNoCredentialAvailable)
	}

	msgs := NormalizeMessages(req.Messages)
	pinned := req.Strict && req.PreferredProvider != ""
	var attempts []*domain.ProviderError
	var lastCredit *domain.ProviderError

	for i := 0; i < len(order); i++ {
		if err := ctx.Err(); err != nil {
			observability.RouteOutcome(outcomeCanceled, "", i)
			return domain.Completion{}, fmt.Errorf("op=router.route: %w", err)
		}
		p := order[i]
		secret, _ := req.Credentials.Secret(p)
		client := r.clients[p]
		stream := req.Stream && i == 0

		res, err := client.Send(ctx, secret, msgs, stream)
		if err == nil {
			lg.Info("provider succeeded",
				slog.String("provider", string(p)),
				slog.Int("attempt", i+1),
				slog.Bool("stream", res.IsStream()))
			observability.RouteOutcome(outcomeSuccess, string(p), i+1)
			r.recordUsage(ctx, req, client, msgs, res, i+1)
			return res, nil
		}

		perr := asProviderError(p, err)
		attempts = append(attempts, perr)
		observability.ProviderFailure(string(p), perr.Kind.String())
		lg.Warn("provider failed",
			slog.String("provider", string(p)),
			slog.String("kind", perr.Kind.String()),
			slog.Int("attempt", i+1),
			slog.Bool("strict", req.Strict),
			slog.Int("status", perr.Status),
			slog.String("error", perr.Error()))

		isPinned := pinned && i == 0
		switch perr.Kind {
		case domain.KindInsufficientCredit:
			lastCredit = perr
			if isPinned {
				order = append(order, req.Credentials.Available(reserve)...)
				lg.Info("pinned provider out of credit, falling back", slog.String("provider", string(p)))
			}
		case domain.KindInvalidKey, domain.KindNoModelAccess, domain.KindFatal:
			if isPinned {
				observability.RouteOutcome(outcomeStrictStop, string(p), i+1)
				return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrProviderFailed, perr)
			}
		}
	}

	// A strict pin only reaches other providers through credit exhaustion, so
	// that is the failure the caller has to act on.
	last := attempts[len(attempts)-1]
	if pinned && lastCredit != nil {
		last = lastCredit
	}
	if last.Kind == domain.KindInsufficientCredit {
		observability.RouteOutcome(outcomeCredit, string(last.Provider), len(attempts))
		return domain.Completion{}, last
	}
	observability.RouteOutcome(outcomeExhausted, "", len(attempts))
	exhausted := &domain.ExhaustedError{Attempts: attempts}
	if pinned {
		exhausted.Preferred = req.PreferredProvider
	}
	return domain.Completion{}, exhausted
}

// asProviderError keeps classified failures and treats anything else as Fatal.
func asProviderError(p domain.ProviderID, err error) *domain.ProviderError {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &domain.ProviderError{Provider: p, Kind: domain.KindFatal, Err: err}
}

// recordUsage notifies the usage recorder in the background. Its failures and
// panics are logged and never reach the caller.
func (r *Router) recordUsage(ctx context.Context, req domain.RoutingRequest, client domain.ProviderClient, msgs []domain.Message, res domain.Completion, attempts int) {
	if r.usage == nil {
		return
	}
	ev := domain.UsageEvent{
		ID:         ulid.Make().String(),
		Provider:   res.Provider,
		Model:      client.Model(),
		CallerID:   req.CallerID,
		Streamed:   res.IsStream(),
		Attempts:   attempts,
		OccurredAt: time.Now().UTC(),
	}
	if ev.Provider == "" {
		ev.Provider = client.ID()
	}

	lg := observability.LoggerFromContext(ctx)
	timeout := r.UsageTimeout
	if timeout <= 0 {
		timeout = defaultUsageTimeout
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				lg.Error("usage recorder panicked", slog.Any("panic", rec))
			}
		}()
		// Token counting may load encodings; it stays off the caller's path.
		if r.tokens != nil {
			if n, err := r.tokens.CountMessages(msgs, ev.Model); err == nil {
				ev.PromptTokens = n
			} else {
				lg.Debug("prompt token count failed", slog.Any("error", err))
			}
		}
		if err := r.usage.RecordUsage(bg, ev); err != nil {
			lg.Warn("usage record failed", slog.String("provider", string(ev.Provider)), slog.Any("error", err))
		}
	}()
}

// Drain waits for pending usage notifications or until ctx is done.
func (r *Router) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
