package stcore

import (
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// NewBboltDB opens the bbolt database file, creating it if needed.
//
// References:
//   - https://github.com/etcd-io/bbolt
func NewBboltDB(dbPath string, opts *bbolt.Options) (*bbolt.DB, error) {
	db, err := bbolt.Open(dbPath, os.FileMode(0o600), opts)
	if err != nil {
		return nil, fmt.Errorf("bbolt: failed to open database: path=%s: %w", dbPath, err)
	}

	return db, nil
}

// BboltDBBucket implements DB on top of a single bbolt bucket.
//
// Remarks:
//   - The bucket is created by the first write, reading a missing bucket
//     behaves as reading an empty one.
//   - Closing the bucket doesn't close the underlying database, it's shared
//     between buckets and should be closed by its owner.
type BboltDBBucket struct {
	db   *bbolt.DB
	name []byte
}

// NewBboltDBBucket returns the DB operating on the bucket of the database.
func NewBboltDBBucket(db *bbolt.DB, bucket string) *BboltDBBucket {
	return &BboltDBBucket{
		db:   db,
		name: []byte(bucket),
	}
}

// Read returns a copy of the stored blob.
func (b *BboltDBBucket) Read(key string) (Blob, error) {
	var blob Blob

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return status.StatusNoData
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return status.StatusNoData
		}

		blob = copyBlob(data)

		return nil
	})
	if err != nil {
		return Blob{}, err
	}

	return blob, nil
}

// Write stores the blob in the bucket.
func (b *BboltDBBucket) Write(key string, blob Blob) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(b.name)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(key), blob.Data)
	})
	if err != nil {
		return fmt.Errorf("bbolt: failed to write: bucket=%s key=%s: %w", b.name, key, err)
	}

	return nil
}

// Remove deletes the blob from the bucket.
func (b *BboltDBBucket) Remove(key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return nil
		}

		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bbolt: failed to remove: bucket=%s key=%s: %w", b.name, key, err)
	}

	return nil
}

// ForEach iterates over the blobs in the key order.
//
// Remarks:
//   - fn is called within the read transaction and shouldn't write to the database.
func (b *BboltDBBucket) ForEach(fn func(key string, b Blob) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			return fn(string(k), copyBlob(v))
		})
	})
}

// Close does nothing, the database is closed by its owner.
func (*BboltDBBucket) Close() error {
	return nil
}

// bbolt slices are valid only within the transaction.
func copyBlob(data []byte) Blob {
	return Blob{Data: append([]byte(nil), data...)}
}
