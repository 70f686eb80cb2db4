package artifact

import (
	"context"
	"fmt"

	"github.com/go-sod/perfml/internal/database"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "artifacts"

var _ Store = (*BoltStore)(nil)

// BoltStore keeps every artifact under its name in the artifacts bucket.
type BoltStore struct {
	sDB *database.DB
}

func NewBoltStore(db *database.DB) *BoltStore {
	return &BoltStore{sDB: db}
}

func (s *BoltStore) Put(_ context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(name), data); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (s *BoltStore) Get(_ context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var (
		data  []byte
		found bool
	)
	if err := s.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(name)); v != nil {
			// bolt values are only valid inside the transaction
			data = make([]byte, len(v))
			copy(data, v)
			found = true
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, nil
}

func (s *BoltStore) Has(_ context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	var found bool
	if err := s.sDB.DB.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(bucketName)); b != nil {
			found = b.Get([]byte(name)) != nil
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("view transaction error: %w", err)
	}
	return found, nil
}

func (s *BoltStore) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}
