package core

// Closer releases the resource it owns, e.g. an mDNS engine handle or a browse session.
type Closer interface {
	// Close the resource.
	Close() error
}

// FuncCloser adapts a plain function to the Closer interface.
type FuncCloser func() error

// Close calls f.
func (f FuncCloser) Close() error {
	return f()
}
