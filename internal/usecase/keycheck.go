package usecase

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/observability"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// ProviderKeyReport is the check result for one provider.
type ProviderKeyReport struct {
	Configured bool             `json:"configured"`
	Status     domain.KeyStatus `json:"status,omitempty"`
	Cached     bool             `json:"cached,omitempty"`
}

// KeyReport summarizes a credential set.
type KeyReport struct {
	// DefaultProvider is what ChooseModel would pick; empty when no key is set.
	DefaultProvider domain.ProviderID                       `json:"default_provider,omitempty"`
	Providers       map[domain.ProviderID]ProviderKeyReport `json:"providers"`
}

// KeyChecker probes every configured key concurrently.
type KeyChecker struct {
	probers  map[domain.ProviderID]domain.KeyProber
	priority []domain.ProviderID
	cache    domain.KeyStatusCache
}

// NewKeyChecker builds a checker. cache may be nil.
func NewKeyChecker(probers []domain.KeyProber, priority []domain.ProviderID, cache domain.KeyStatusCache) *KeyChecker {
	byID := make(map[domain.ProviderID]domain.KeyProber, len(probers))
	for _, p := range probers {
		byID[p.ID()] = p
	}
	return &KeyChecker{probers: byID, priority: priority, cache: cache}
}

// Check reports configured/status per known provider. Probe results are cached
// by key fingerprint; cache failures only cost an extra probe.
func (k *KeyChecker) Check(ctx context.Context, creds domain.CredentialSet) KeyReport {
	report := KeyReport{Providers: make(map[domain.ProviderID]ProviderKeyReport, len(k.priority))}
	if sel, err := ChooseModel(creds, k.priority); err == nil {
		report.DefaultProvider = sel.Provider
	}

	var mu sync.Mutex
	set := func(p domain.ProviderID, r ProviderKeyReport) {
		mu.Lock()
		report.Providers[p] = r
		mu.Unlock()
	}
	var g errgroup.Group
	for _, p := range k.priority {
		secret, ok := creds.Secret(p)
		if !ok {
			set(p, ProviderKeyReport{})
			continue
		}
		prober, ok := k.probers[p]
		if !ok {
			set(p, ProviderKeyReport{Configured: true, Status: domain.KeyError})
			continue
		}
		g.Go(func() error {
			st, cached := k.probe(ctx, prober, secret)
			observability.KeyChecked(string(p), string(st), cached)
			set(p, ProviderKeyReport{Configured: true, Status: st, Cached: cached})
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// Status reports which providers have a usable key without probing them.
func (k *KeyChecker) Status(creds domain.CredentialSet) KeyReport {
	report := KeyReport{Providers: make(map[domain.ProviderID]ProviderKeyReport, len(k.priority))}
	if sel, err := ChooseModel(creds, k.priority); err == nil {
		report.DefaultProvider = sel.Provider
	}
	for _, p := range k.priority {
		report.Providers[p] = ProviderKeyReport{Configured: creds.Has(p)}
	}
	return report
}

func (k *KeyChecker) probe(ctx context.Context, prober domain.KeyProber, secret string) (domain.KeyStatus, bool) {
	lg := observability.LoggerFromContext(ctx)
	p := prober.ID()
	if k.cache != nil {
		st, ok, err := k.cache.Get(ctx, p, secret)
		if err != nil {
			lg.Warn("key status cache get failed", slog.String("provider", string(p)), slog.Any("error", err))
		} else if ok {
			return st, true
		}
	}

	st := prober.ProbeKey(ctx, secret)
	// Errors are transient; only definite answers are cached.
	if k.cache != nil && st != domain.KeyError {
		if err := k.cache.Set(ctx, p, secret, st); err != nil {
			lg.Warn("key status cache set failed", slog.String("provider", string(p)), slog.Any("error", err))
		}
	}
	return st, false
}
