// Package config assembles the process configuration from the per-package
// Config structs.
package config

import (
	"github.com/go-sod/perfml/internal/artifact"
	"github.com/go-sod/perfml/internal/database"
	"github.com/go-sod/perfml/internal/dispatcher"
	"github.com/go-sod/perfml/internal/registry"
	"github.com/go-sod/perfml/internal/setup"
)

var (
	_ setup.ArtifactConfigProvider   = (*Config)(nil)
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.RegistryConfigProvider   = (*Config)(nil)
	_ setup.DispatcherConfigProvider = (*Config)(nil)
)

type Config struct {
	Artifact   artifact.Config
	Database   database.Config
	Registry   registry.Config
	Dispatcher dispatcher.Config
}

func (c *Config) ArtifactConfig() *artifact.Config {
	return &c.Artifact
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) RegistryConfig() *registry.Config {
	return &c.Registry
}

func (c *Config) DispatcherConfig() *dispatcher.Config {
	return &c.Dispatcher
}
