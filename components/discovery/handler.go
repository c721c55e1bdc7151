package discovery

// Handler to handle discovery notifications.
type Handler interface {
	// HandleDiscovered is called when the service is resolved or its record changes.
	HandleDiscovered(service Service)

	// HandleRemoved is called when the service disappears from the network.
	HandleRemoved(name string)
}

// ErrorReporter reports errors.
type ErrorReporter interface {
	// ReportError reports errors occurred during discovery.
	ReportError(err error)
}
