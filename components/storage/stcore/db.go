package stcore

// DB stores opaque blobs by key.
//
// Remarks:
//   - Implementation should be safe to use from multiple goroutines.
//   - Blobs returned by the implementation are owned by the caller.
type DB interface {
	// Read returns the blob stored with the key.
	//
	// Remarks:
	//  - Returns status.StatusNoData if nothing is stored with the key.
	Read(key string) (Blob, error)

	// Write stores the blob with the key, replacing the previous one.
	Write(key string, blob Blob) error

	// Remove deletes the blob stored with the key.
	//
	// Remarks:
	//  - Removing a missing key isn't an error.
	Remove(key string) error

	// ForEach calls fn for every stored blob, iteration stops on the first error.
	ForEach(fn func(key string, b Blob) error) error

	// Close releases the database resources.
	Close() error
}
