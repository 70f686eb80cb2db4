// Package database opens and closes the bolt file backing the artifact store.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sod/perfml/internal/logging"
	bolt "go.etcd.io/bbolt"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = 5 * time.Second

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Debugf("opening bolt file %s", config.FileName)

	if dir := filepath.Dir(config.FileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := bolt.Open(config.FileName, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("creating connection Db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Debugf("closing bolt file %s", db.DB.Path())

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close Db connection: %w", err)
	}

	return nil
}
