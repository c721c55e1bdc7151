package discovery

// FanoutHandler notifies all registered handlers in the order they were added.
type FanoutHandler struct {
	handlers []Handler
}

// Add adds the handler to be notified.
func (h *FanoutHandler) Add(handler Handler) {
	h.handlers = append(h.handlers, handler)
}

// HandleDiscovered notifies all registered handlers.
func (h *FanoutHandler) HandleDiscovered(service Service) {
	for _, handler := range h.handlers {
		handler.HandleDiscovered(service)
	}
}

// HandleRemoved notifies all registered handlers.
func (h *FanoutHandler) HandleRemoved(name string) {
	for _, handler := range h.handlers {
		handler.HandleRemoved(name)
	}
}
