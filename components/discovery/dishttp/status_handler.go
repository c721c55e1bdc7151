package dishttp

import (
	"net/http"

	"github.com/open-control-systems/mdns-hub/components/http/htcore"
)

// BrowseState provides the state of the browse session.
type BrowseState interface {
	IsBrowsing() bool
	ServiceType() string
}

// AdvertiseState provides the state of the advertise session.
type AdvertiseState interface {
	IsAdvertising() bool
	RegisteredName() string
}

// Status is the state of the discovery sessions.
type Status struct {
	Browsing    bool   `json:"browsing"`
	ServiceType string `json:"service_type,omitempty"`

	Advertising    bool   `json:"advertising"`
	RegisteredName string `json:"registered_name,omitempty"`

	Services int `json:"services"`
}

// StatusHandler serves the state of the discovery sessions over HTTP.
type StatusHandler struct {
	browser    BrowseState
	advertiser AdvertiseState
	counter    interface{ Len() int }
}

// NewStatusHandler is an initialization of StatusHandler.
//
// Parameters:
//   - browser - browse session state.
//   - advertiser - advertise session state, can be nil if nothing is advertised.
//   - counter - number of the discovered services.
func NewStatusHandler(
	browser BrowseState,
	advertiser AdvertiseState,
	counter interface{ Len() int },
) *StatusHandler {
	return &StatusHandler{
		browser:    browser,
		advertiser: advertiser,
		counter:    counter,
	}
}

// ServeHTTP writes the sessions state as JSON object.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	st := Status{
		Browsing:    h.browser.IsBrowsing(),
		ServiceType: h.browser.ServiceType(),
		Services:    h.counter.Len(),
	}

	if h.advertiser != nil {
		st.Advertising = h.advertiser.IsAdvertising()
		st.RegisteredName = h.advertiser.RegisteredName()
	}

	htcore.WriteJSON(w, st)
}
