package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
	"github.com/fairyhunter13/ai-provider-router/internal/domain/mocks"
	"github.com/fairyhunter13/ai-provider-router/internal/usecase"
)

func newProber(t *testing.T, p domain.ProviderID) *mocks.MockKeyProber {
	m := mocks.NewMockKeyProber(t)
	m.On("ID").Return(p).Maybe()
	return m
}

func TestKeyChecker_Check(t *testing.T) {
	groq := newProber(t, domain.ProviderGroq)
	groq.On("ProbeKey", mock.Anything, "g").Return(domain.KeyWorking).Once()
	openai := newProber(t, domain.ProviderOpenAI)
	openai.On("ProbeKey", mock.Anything, "bad").Return(domain.KeyInvalid).Once()
	gemini := newProber(t, domain.ProviderGemini)
	claude := newProber(t, domain.ProviderClaude)
	claude.On("ProbeKey", mock.Anything, "c").Return(domain.KeyError).Once()

	kc := usecase.NewKeyChecker([]domain.KeyProber{groq, openai, gemini, claude}, domain.DefaultPriority, nil)
	rep := kc.Check(context.Background(), domain.CredentialSet{
		domain.ProviderGroq:   "g",
		domain.ProviderOpenAI: "bad",
		domain.ProviderClaude: "c",
	})

	assert.Equal(t, domain.ProviderGroq, rep.DefaultProvider)
	assert.Len(t, rep.Providers, 4)
	assert.Equal(t, usecase.ProviderKeyReport{Configured: true, Status: domain.KeyWorking}, rep.Providers[domain.ProviderGroq])
	assert.Equal(t, usecase.ProviderKeyReport{Configured: true, Status: domain.KeyInvalid}, rep.Providers[domain.ProviderOpenAI])
	assert.Equal(t, usecase.ProviderKeyReport{}, rep.Providers[domain.ProviderGemini])
	assert.Equal(t, usecase.ProviderKeyReport{Configured: true, Status: domain.KeyError}, rep.Providers[domain.ProviderClaude])
}

func TestKeyChecker_NoKeys(t *testing.T) {
	kc := usecase.NewKeyChecker(nil, domain.DefaultPriority, nil)
	rep := kc.Check(context.Background(), nil)
	assert.Empty(t, rep.DefaultProvider)
	for _, p := range domain.DefaultPriority {
		assert.False(t, rep.Providers[p].Configured)
	}
}

func TestKeyChecker_MissingProberReportsError(t *testing.T) {
	kc := usecase.NewKeyChecker(nil, []domain.ProviderID{domain.ProviderGemini}, nil)
	rep := kc.Check(context.Background(), domain.CredentialSet{domain.ProviderGemini: "m"})
	assert.Equal(t, usecase.ProviderKeyReport{Configured: true, Status: domain.KeyError}, rep.Providers[domain.ProviderGemini])
}

func TestKeyChecker_CacheHitSkipsProbe(t *testing.T) {
	groq := newProber(t, domain.ProviderGroq)
	cache := mocks.NewMockKeyStatusCache(t)
	cache.On("Get", mock.Anything, domain.ProviderGroq, "g").Return(domain.KeyInvalid, true, nil).Once()

	kc := usecase.NewKeyChecker([]domain.KeyProber{groq}, []domain.ProviderID{domain.ProviderGroq}, cache)
	rep := kc.Check(context.Background(), domain.CredentialSet{domain.ProviderGroq: "g"})

	assert.Equal(t, usecase.ProviderKeyReport{Configured: true, Status: domain.KeyInvalid, Cached: true}, rep.Providers[domain.ProviderGroq])
	groq.AssertNotCalled(t, "ProbeKey", mock.Anything, mock.Anything)
}

func TestKeyChecker_CacheMissStoresDefiniteResult(t *testing.T) {
	groq := newProber(t, domain.ProviderGroq)
	groq.On("ProbeKey", mock.Anything, "g").Return(domain.KeyWorking).Once()
	cache := mocks.NewMockKeyStatusCache(t)
	cache.On("Get", mock.Anything, domain.ProviderGroq, "g").Return(domain.KeyStatus(""), false, nil).Once()
	cache.On("Set", mock.Anything, domain.ProviderGroq, "g", domain.KeyWorking).Return(nil).Once()

	kc := usecase.NewKeyChecker([]domain.KeyProber{groq}, []domain.ProviderID{domain.ProviderGroq}, cache)
	rep := kc.Check(context.Background(), domain.CredentialSet{domain.ProviderGroq: "g"})
	assert.Equal(t, domain.KeyWorking, rep.Providers[domain.ProviderGroq].Status)
	assert.False(t, rep.Providers[domain.ProviderGroq].Cached)
}

func TestKeyChecker_ErrorResultNotCached(t *testing.T) {
	claude := newProber(t, domain.ProviderClaude)
	claude.On("ProbeKey", mock.Anything, "c").Return(domain.KeyError).Once()
	cache := mocks.NewMockKeyStatusCache(t)
	cache.On("Get", mock.Anything, domain.ProviderClaude, "c").Return(domain.KeyStatus(""), false, nil).Once()

	kc := usecase.NewKeyChecker([]domain.KeyProber{claude}, []domain.ProviderID{domain.ProviderClaude}, cache)
	rep := kc.Check(context.Background(), domain.CredentialSet{domain.ProviderClaude: "c"})
	assert.Equal(t, domain.KeyError, rep.Providers[domain.ProviderClaude].Status)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestKeyChecker_CacheFailureFallsBackToProbe(t *testing.T) {
	gemini := newProber(t, domain.ProviderGemini)
	gemini.On("ProbeKey", mock.Anything, "m").Return(domain.KeyWorking).Once()
	cache := mocks.NewMockKeyStatusCache(t)
	cache.On("Get", mock.Anything, domain.ProviderGemini, "m").Return(domain.KeyStatus(""), false, errors.New("redis down")).Once()
	cache.On("Set", mock.Anything, domain.ProviderGemini, "m", domain.KeyWorking).Return(errors.New("redis down")).Once()

	kc := usecase.NewKeyChecker([]domain.KeyProber{gemini}, []domain.ProviderID{domain.ProviderGemini}, cache)
	rep := kc.Check(context.Background(), domain.CredentialSet{domain.ProviderGemini: "m"})
	assert.Equal(t, domain.KeyWorking, rep.Providers[domain.ProviderGemini].Status)
}

func TestKeyChecker_StatusDoesNotProbe(t *testing.T) {
	groq := newProber(t, domain.ProviderGroq)
	kc := usecase.NewKeyChecker([]domain.KeyProber{groq}, domain.DefaultPriority, nil)

	rep := kc.Status(domain.CredentialSet{domain.ProviderOpenAI: "o", domain.ProviderClaude: " "})
	assert.Equal(t, domain.ProviderOpenAI, rep.DefaultProvider)
	assert.True(t, rep.Providers[domain.ProviderOpenAI].Configured)
	assert.False(t, rep.Providers[domain.ProviderClaude].Configured)
	assert.Empty(t, rep.Providers[domain.ProviderOpenAI].Status)
	groq.AssertNotCalled(t, "ProbeKey", mock.Anything, mock.Anything)
}
