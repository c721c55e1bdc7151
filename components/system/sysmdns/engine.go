package sysmdns

import "net"

// Engine is an mDNS responder and resolver running on its own goroutine.
//
// Remarks:
//   - Implementation should be safe to use from multiple goroutines.
//   - No method waits for network replies.
type Engine interface {
	// Register starts advertising the service.
	//
	// Remarks:
	//  - Returns status.StatusAlreadyExist if the service with the same fullname
	//    is already registered.
	Register(record *ServiceRecord) error

	// Unregister stops advertising the service.
	//
	// Remarks:
	//  - The returned channel receives a single status once the removal is processed.
	//  - Returns status.StatusNoData if the service isn't registered.
	Unregister(fullname string) (<-chan UnregisterStatus, error)

	// Browse starts browsing for the service type, e.g. "_http._tcp.local.".
	Browse(serviceType string) (*Subscription, error)

	// StopBrowse cancels the subscription.
	//
	// Remarks:
	//  - Only the given subscription is cancelled, other subscriptions for the same
	//    service type keep running.
	StopBrowse(sub *Subscription) error

	// EnableInterface enables the interface which owns the IP address.
	//
	// Remarks:
	//  - Affects registrations and subscriptions started afterwards.
	EnableInterface(ip net.IP) error

	// DisableAllInterfaces disables all interfaces.
	//
	// Remarks:
	//  - Affects registrations and subscriptions started afterwards.
	DisableAllInterfaces() error

	// Shutdown stops the engine and releases all network resources.
	Shutdown() error
}

// EngineFactory creates a new engine instance.
type EngineFactory func() (Engine, error)

// NewZeroconfEngineFactory returns a factory of engines on top of the zeroconf transport.
func NewZeroconfEngineFactory(
	transportParams ZeroconfTransportParams,
	engineParams EngineParams,
) EngineFactory {
	return func() (Engine, error) {
		engine, err := NewMdnsEngine(NewZeroconfTransport(transportParams), engineParams)
		if err != nil {
			return nil, err
		}

		return engine, nil
	}
}
