package invoice

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const mirrorBucketName = "mirror"

// BoltStorage implements the Storage interface using BoltDB
type BoltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens (or creates) a BoltDB file at path
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(mirrorBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

// Get retrieves a slot value
func (b *BoltStorage) Get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucketName))
		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrSlotEmpty
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put overwrites a slot value
func (b *BoltStorage) Put(key string, data []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucketName))
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("putting %s: %w", key, err)
		}
		return nil
	})
}

// Delete clears a slot
func (b *BoltStorage) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mirrorBucketName))
		return bucket.Delete([]byte(key))
	})
}

// Close closes the database connection
func (b *BoltStorage) Close() error {
	return b.db.Close()
}
