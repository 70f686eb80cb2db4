// Package artifact stores encoded pipelines by name. The file store keeps one
// file per name, the bolt store one key per name in a single bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

const (
	StoreTypeFile = "FILE"
	StoreTypeBolt = "BOLT"
)

var ErrNotFound = errors.New("artifact not found")

type Config struct {
	Dir  string `envconfig:"PERFML_MODELS_DIR" default:"models"`
	Type string `envconfig:"PERFML_STORE_TYPE" default:"FILE"`
}

// ProvideFn returns the configured Store.
type ProvideFn func(context.Context) (Store, error)

type Store interface {
	// Put replaces the artifact stored under name.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns ErrNotFound when nothing is stored under name.
	Get(ctx context.Context, name string) ([]byte, error)
	Has(ctx context.Context, name string) (bool, error)
	// Delete removes the artifact; deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
