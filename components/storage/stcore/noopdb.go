package stcore

import "github.com/open-control-systems/mdns-hub/components/status"

// NoopDB keeps nothing, e.g. when the discovered services shouldn't survive restarts.
type NoopDB struct{}

// Read always reports a missing blob.
func (NoopDB) Read(string) (Blob, error) {
	return Blob{}, status.StatusNoData
}

// Write discards the blob.
func (NoopDB) Write(string, Blob) error {
	return nil
}

// Remove does nothing.
func (NoopDB) Remove(string) error {
	return nil
}

// ForEach never calls fn.
func (NoopDB) ForEach(func(string, Blob) error) error {
	return nil
}

// Close does nothing.
func (NoopDB) Close() error {
	return nil
}
