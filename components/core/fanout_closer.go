package core

import "sync"

// FanoutCloser propagates close call to the underlying closers.
//
// Remarks:
//   - Closers are closed in reverse order of registration, the same way as deferred calls,
//     so a session registered after the engine registry is released before the registry.
type FanoutCloser struct {
	mu      sync.Mutex
	closers []node
}

// Add closer with id to be notified when the close event is happened.
func (c *FanoutCloser) Add(id string, closer Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closers = append(c.closers, node{id: id, c: closer})
}

// Close all.
func (c *FanoutCloser) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	for n := len(closers) - 1; n >= 0; n-- {
		node := closers[n]

		if err := node.c.Close(); err != nil {
			LogErr.Printf("fanout-closer: failed to close: id=%s err=%v\n", node.id, err)
		}
	}

	return nil
}

type node struct {
	id string
	c  Closer
}
