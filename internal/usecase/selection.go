package usecase

import (
	"fmt"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// ChooseModel picks the first provider in priority order that has a usable
// secret. It is the default policy when the caller states no preference.
func ChooseModel(creds domain.CredentialSet, priority []domain.ProviderID) (domain.Selection, error) {
	for _, p := range priority {
		if secret, ok := creds.Secret(p); ok {
			return domain.Selection{Provider: p, Secret: secret}, nil
		}
	}
	return domain.Selection{}, fmt.Errorf("op=usecase.ChooseModel: %w", domain.ErrNoCredentialAvailable)
}
