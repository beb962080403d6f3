package api

import (
	"context"
	"net/http"
	"strings"

	"cvrpcluster/internal/auth"
	"cvrpcluster/internal/config"
	"cvrpcluster/internal/metrics"
	"cvrpcluster/internal/store"
	"cvrpcluster/internal/webhooks"
)

// Server holds everything an HTTP handler needs: persistence, the
// webhook publisher, the auth verifier, and the trace event broker.
type Server struct {
	Store  store.Store
	Pub    *webhooks.Publisher
	Auth   *auth.Verifier
	Broker EventBroker
	Config config.Config
}

// NewServer wires a Server from cfg. With no DatabaseURL it runs against
// an in-memory store; with no RedisURL its trace broker stays in-process.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var broker EventBroker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	broker = NewThrottledBroker(broker, cfg.TraceEventsPerSecond, cfg.TraceBurst)

	metrics.RegisterDefault()

	return &Server{
		Store:  s,
		Pub:    webhooks.NewPublisher(s),
		Auth:   auth.NewVerifier(cfg.AuthMode),
		Broker: broker,
		Config: cfg,
	}, nil
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
	p := s.getPrincipal(r)
	return r.Context(), p.Tenant
}

// NewWebhookWorker creates a background worker for webhook deliveries,
// capped at the configured WebhookMaxAttempts.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	w := webhooks.NewWorker(s.Store)
	if s.Config.WebhookMaxAttempts > 0 {
		w.MaxAttempts = s.Config.WebhookMaxAttempts
	}
	return w
}
