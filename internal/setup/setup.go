// Package setup processes the environment configuration and builds the
// factories held by srvenv.
package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-sod/perfml/internal/artifact"
	"github.com/go-sod/perfml/internal/database"
	"github.com/go-sod/perfml/internal/dispatcher"
	"github.com/go-sod/perfml/internal/logging"
	"github.com/go-sod/perfml/internal/pipeline"
	"github.com/go-sod/perfml/internal/registry"
	"github.com/go-sod/perfml/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

const boltFileName = "models.db"

type ArtifactConfigProvider interface {
	ArtifactConfig() *artifact.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type RegistryConfigProvider interface {
	RegistryConfig() *registry.Config
}

type DispatcherConfigProvider interface {
	DispatcherConfig() *dispatcher.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	artifactConfigProvider, ok := config.(ArtifactConfigProvider)
	if !ok {
		return nil, fmt.Errorf("unable read artifact config")
	}
	artifactCfg := artifactConfigProvider.ArtifactConfig()

	var db *database.DB
	switch strings.ToUpper(artifactCfg.Type) {
	case artifact.StoreTypeFile:
		logger.Debugw("configuring file artifact store", "dir", artifactCfg.Dir)
		serverEnvOpts = append(serverEnvOpts, srvenv.WithStore(ProvideFileStoreFor(artifactCfg)))
	case artifact.StoreTypeBolt:
		dbCfg := &database.Config{}
		if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
			dbCfg = dbConfigProvider.DatabaseConfig()
		}
		if dbCfg.FileName == "" {
			dbCfg.FileName = filepath.Join(artifactCfg.Dir, boltFileName)
		}
		logger.Debugw("configuring bolt artifact store", "file", dbCfg.FileName)
		dbFromEnv, err := database.NewFromEnv(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("unable to open database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts,
			srvenv.WithDatabase(db),
			srvenv.WithStore(ProvideBoltStoreFor(db)),
		)
	default:
		return nil, fmt.Errorf("unknown artifact store type: %s", artifactCfg.Type)
	}

	if registryConfigProvider, ok := config.(RegistryConfigProvider); ok {
		provideFn, err := ProvideRegistryFor(registryConfigProvider)
		if err != nil {
			closeDB(ctx, db)
			return nil, fmt.Errorf("unable create registry provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRegistry(provideFn))
	}

	if dispatcherConfigProvider, ok := config.(DispatcherConfigProvider); ok {
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(ProvideDispatcherFor(dispatcherConfigProvider)))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideFileStoreFor(cfg *artifact.Config) artifact.ProvideFn {
	return func(context.Context) (artifact.Store, error) {
		return artifact.NewFileStore(cfg.Dir), nil
	}
}

func ProvideBoltStoreFor(db *database.DB) artifact.ProvideFn {
	return func(context.Context) (artifact.Store, error) {
		return artifact.NewBoltStore(db), nil
	}
}

func ProvideRegistryFor(provider RegistryConfigProvider) (registry.ProvideFn, error) {
	cfg := provider.RegistryConfig()
	params, err := pipeline.LoadParams(cfg.ParamsFile)
	if err != nil {
		return nil, err
	}
	return func(store artifact.Store) (*registry.Registry, error) {
		return registry.New(
			store,
			registry.WithTestFraction(cfg.TestFraction),
			registry.WithSeed(cfg.Seed),
			registry.WithFitConcurrency(cfg.FitConcurrency),
			registry.WithParams(params),
		)
	}, nil
}

func ProvideDispatcherFor(provider DispatcherConfigProvider) dispatcher.ProvideFn {
	cfg := provider.DispatcherConfig()
	return func(reg dispatcher.Registry) (*dispatcher.Dispatcher, error) {
		return dispatcher.New(reg, dispatcher.WithReportFile(cfg.ReportFile))
	}
}

func closeDB(ctx context.Context, db *database.DB) {
	if db == nil {
		return
	}
	if err := db.Close(ctx); err != nil {
		logging.FromContext(ctx).Warnw("unable to close database", "error", err)
	}
}
