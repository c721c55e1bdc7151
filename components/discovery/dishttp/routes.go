package dishttp

import "net/http"

const (
	// ServicesPath is the endpoint of the discovered services.
	ServicesPath = "/api/v1/services"

	// StatusPath is the endpoint of the discovery sessions state.
	StatusPath = "/api/v1/status"
)

// Register registers the discovery endpoints on the mux.
func Register(mux *http.ServeMux, services *ServicesHandler, status *StatusHandler) {
	mux.Handle(ServicesPath, services)
	mux.Handle(StatusPath, status)
}
