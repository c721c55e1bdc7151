package dishttp

import (
	"net/http"

	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
	"github.com/open-control-systems/mdns-hub/components/http/htcore"
)

// ServiceLister lists the discovered services.
type ServiceLister interface {
	// List returns all known services ordered by name.
	List() []disstore.Item
}

// ServicesHandler serves the discovered services over HTTP.
type ServicesHandler struct {
	lister ServiceLister
}

// NewServicesHandler is an initialization of ServicesHandler.
func NewServicesHandler(lister ServiceLister) *ServicesHandler {
	return &ServicesHandler{lister: lister}
}

// ServeHTTP writes the discovered services as JSON array.
//
// Remarks:
//   - Only GET requests are allowed.
func (h *ServicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	htcore.WriteJSON(w, h.lister.List())
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}

	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

	return false
}
