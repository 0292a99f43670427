package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/config"
	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/session"
	"github.com/zjrosen/signup/internal/session/sqlite"
	"github.com/zjrosen/signup/internal/tracing"
)

// services is everything a command needs to talk to the backend.
type services struct {
	tracing      *tracing.Provider
	client       *api.Client
	checker      *api.CachedChecker
	auth         *session.Authenticator
	store        session.Store
	orchestrator *enroll.Orchestrator
}

// newServices builds the backend stack for c. Close must be called when done.
func newServices(c config.Config) (*services, error) {
	tp, err := tracing.NewProvider(c.TracingConfig())
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	svc := &services{tracing: tp}
	tracer := tp.Tracer()

	svc.client, err = api.NewClient(c.API, api.WithTracer(tracer))
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("api.base_url: %w", err)
	}
	svc.checker = api.NewCachedChecker(svc.client, c.Form.UniquenessCacheTTL)

	svc.auth, err = session.NewAuthenticator(c.API.BaseURL, c.Auth,
		session.WithHTTPClient(svc.client.HTTPClient()),
		session.WithTracer(tracer),
	)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	opts := []enroll.Option{enroll.WithTracer(tracer)}
	if c.SessionStorage.Enabled {
		store, err := openStore(c)
		if err != nil {
			// Sessions are a convenience; registration still works without them.
			log.ErrorErr(log.CatDB, "Session store unavailable", err, "path", c.SessionsPath())
		} else {
			svc.store = store
			opts = append(opts, enroll.WithStore(store))
		}
	}
	svc.orchestrator = enroll.New(svc.client, svc.auth, opts...)

	log.Debug(log.CatConfig, "Services ready",
		"base_url", svc.client.BaseURL(),
		"tracing", tp.Enabled(),
		"sessions", svc.store != nil)
	return svc, nil
}

func openStore(c config.Config) (*sqlite.Store, error) {
	path := c.SessionsPath()
	if path == "" {
		return nil, fmt.Errorf("no session store path: home directory unknown")
	}
	return sqlite.Open(path)
}

// Close flushes traces and closes the session store.
func (s *services) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.ErrorErr(log.CatDB, "Closing session store", err)
		}
	}
	if s.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tracing.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "Tracing shutdown", err)
		}
	}
}
