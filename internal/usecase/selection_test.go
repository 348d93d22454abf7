package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
	"github.com/fairyhunter13/ai-provider-router/internal/usecase"
)

func TestChooseModel(t *testing.T) {
	tests := []struct {
		name   string
		creds  domain.CredentialSet
		want   domain.ProviderID
		secret string
	}{
		{"first in priority", domain.CredentialSet{domain.ProviderGroq: "g", domain.ProviderClaude: "c"}, domain.ProviderGroq, "g"},
		{"skips blank", domain.CredentialSet{domain.ProviderGroq: " ", domain.ProviderGemini: " m "}, domain.ProviderGemini, "m"},
		{"only claude", domain.CredentialSet{domain.ProviderClaude: "c"}, domain.ProviderClaude, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := usecase.ChooseModel(tt.creds, domain.DefaultPriority)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Provider)
			assert.Equal(t, tt.secret, sel.Secret)
		})
	}
}

func TestChooseModel_CustomPriority(t *testing.T) {
	creds := domain.CredentialSet{domain.ProviderGroq: "g", domain.ProviderClaude: "c"}
	sel, err := usecase.ChooseModel(creds, []domain.ProviderID{domain.ProviderClaude, domain.ProviderGroq})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderClaude, sel.Provider)
}

func TestChooseModel_NoCredential(t *testing.T) {
	_, err := usecase.ChooseModel(domain.CredentialSet{}, domain.DefaultPriority)
	assert.ErrorIs(t, err, domain.ErrNoCredentialAvailable)

	_, err = usecase.ChooseModel(nil, domain.DefaultPriority)
	assert.ErrorIs(t, err, domain.ErrNoCredentialAvailable)
}
