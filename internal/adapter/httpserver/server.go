package httpserver

import (
	"context"

	"github.com/fairyhunter13/ai-provider-router/internal/config"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
	"github.com/fairyhunter13/ai-provider-router/internal/usecase"
)

// Completer routes one completion request.
type Completer interface {
	Route(ctx context.Context, req domain.RoutingRequest) (domain.Completion, error)
}

// KeyChecker reports on a credential set. Check probes each key; Status
// only reports which keys are present.
type KeyChecker interface {
	Check(ctx context.Context, creds domain.CredentialSet) usecase.KeyReport
	Status(creds domain.CredentialSet) usecase.KeyReport
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Router     Completer
	Keys       KeyChecker
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs a Server. Nil checks are skipped by /readyz.
func NewServer(cfg config.Config, router Completer, keys KeyChecker, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Router: router, Keys: keys, DBCheck: dbCheck, RedisCheck: redisCheck}
}
