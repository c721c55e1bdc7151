package sysmdns

// EventKind is a kind of the browsing event.
type EventKind int

const (
	// EventSearchStarted is emitted when the subscription starts querying the network.
	EventSearchStarted EventKind = iota

	// EventResolved is emitted when the service is fully resolved, i.e. its
	// hostname, port and at least one address are known.
	EventResolved

	// EventRemoved is emitted when the service disappears from the network.
	EventRemoved

	// EventSearchStopped is the last event of the subscription.
	EventSearchStopped

	// EventError is emitted when the subscription fails to query the network,
	// the subscription stays active and the query is retried on the next refresh.
	EventError
)

// String returns string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSearchStarted:
		return "search-started"
	case EventResolved:
		return "resolved"
	case EventRemoved:
		return "removed"
	case EventSearchStopped:
		return "search-stopped"
	case EventError:
		return "error"
	default:
		return "<none>"
	}
}

// Event is a single browsing event.
type Event struct {
	// Kind is an event kind.
	Kind EventKind

	// Fullname is a fully qualified service instance name, empty for search events.
	Fullname string

	// Service is set for EventResolved only.
	Service *ServiceRecord

	// Err is set for EventError only.
	Err error
}

// UnregisterStatus is the result of the service removal.
type UnregisterStatus int

const (
	// UnregisterOK means the service was removed and goodbye packets were sent.
	UnregisterOK UnregisterStatus = iota

	// UnregisterNotFound means the service was already removed.
	UnregisterNotFound
)

// String returns string representation of the unregister status.
func (s UnregisterStatus) String() string {
	switch s {
	case UnregisterOK:
		return "ok"
	case UnregisterNotFound:
		return "not-found"
	default:
		return "<none>"
	}
}
