// Package srvenv holds the dependencies built by setup for one process.
package srvenv

import (
	"context"

	"github.com/go-sod/perfml/internal/artifact"
	"github.com/go-sod/perfml/internal/database"
	"github.com/go-sod/perfml/internal/dispatcher"
	"github.com/go-sod/perfml/internal/registry"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	store      artifact.ProvideFn
	registry   registry.ProvideFn
	dispatcher dispatcher.ProvideFn
}

// Dispatcher chains the store, registry and dispatcher factories.
func (s *SrvEnv) Dispatcher(ctx context.Context) (*dispatcher.Dispatcher, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := s.registry(store)
	if err != nil {
		return nil, err
	}
	return s.dispatcher(reg)
}

func WithStore(fn artifact.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.store = fn
		return s
	}
}

func WithRegistry(fn registry.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = fn
		return s
	}
}

func WithDispatcher(fn dispatcher.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dispatcher = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
