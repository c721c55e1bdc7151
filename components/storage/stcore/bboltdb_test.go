package stcore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/status"
)

func TestBboltDBBucketReadWrite(t *testing.T) {
	db, err := NewBboltDB(filepath.Join(t.TempDir(), "bolt.db"), nil)
	require.Nil(t, err)
	defer func() {
		require.Nil(t, db.Close())
	}()

	bucket := NewBboltDBBucket(db, "services")

	_, err = bucket.Read("foo")
	require.True(t, errors.Is(err, status.StatusNoData))

	require.Nil(t, bucket.Write("foo", Blob{Data: []byte("bar")}))

	blob, err := bucket.Read("foo")
	require.Nil(t, err)
	require.Equal(t, []byte("bar"), blob.Data)

	require.Nil(t, bucket.Remove("foo"))
	require.Nil(t, bucket.Remove("foo"))

	_, err = bucket.Read("foo")
	require.True(t, errors.Is(err, status.StatusNoData))
}

func TestBboltDBBucketForEach(t *testing.T) {
	db, err := NewBboltDB(filepath.Join(t.TempDir(), "bolt.db"), nil)
	require.Nil(t, err)
	defer func() {
		require.Nil(t, db.Close())
	}()

	bucket := NewBboltDBBucket(db, "services")

	callCount := 0
	require.Nil(t, bucket.ForEach(func(string, Blob) error {
		callCount++

		return nil
	}))
	require.Equal(t, 0, callCount)

	require.Nil(t, bucket.Write("a", Blob{Data: []byte("1")}))
	require.Nil(t, bucket.Write("b", Blob{Data: []byte("2")}))

	items := make(map[string]string)
	require.Nil(t, bucket.ForEach(func(key string, b Blob) error {
		items[key] = string(b.Data)

		return nil
	}))
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, items)
}

func TestNoopDB(t *testing.T) {
	db := &NoopDB{}

	require.Nil(t, db.Write("foo", Blob{Data: []byte("bar")}))

	_, err := db.Read("foo")
	require.True(t, errors.Is(err, status.StatusNoData))

	require.Nil(t, db.Remove("foo"))
	require.Nil(t, db.Close())
}

func TestBboltDBBucketForEachError(t *testing.T) {
	db, err := NewBboltDB(filepath.Join(t.TempDir(), "bolt.db"), nil)
	require.Nil(t, err)
	defer func() {
		require.Nil(t, db.Close())
	}()

	bucket := NewBboltDBBucket(db, "services")

	require.Nil(t, bucket.Write("a", Blob{Data: []byte("1")}))
	require.Nil(t, bucket.Write("b", Blob{Data: []byte("2")}))

	stopErr := errors.New("stop")

	var keys []string
	err = bucket.ForEach(func(key string, _ Blob) error {
		keys = append(keys, key)

		return stopErr
	})
	require.True(t, errors.Is(err, stopErr))
	require.Equal(t, []string{"a"}, keys)
}

func TestBboltDBBucketsIsolated(t *testing.T) {
	db, err := NewBboltDB(filepath.Join(t.TempDir(), "bolt.db"), nil)
	require.Nil(t, err)
	defer func() {
		require.Nil(t, db.Close())
	}()

	services := NewBboltDBBucket(db, "services")
	other := NewBboltDBBucket(db, "other")

	require.Nil(t, services.Write("foo", Blob{Data: []byte("bar")}))

	_, err = other.Read("foo")
	require.True(t, errors.Is(err, status.StatusNoData))

	require.Nil(t, services.Close())

	blob, err := services.Read("foo")
	require.Nil(t, err)
	require.Equal(t, "bar", string(blob.Data))
}
