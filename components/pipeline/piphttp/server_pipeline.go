package piphttp

import (
	"net/http"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery/dishttp"
	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
	"github.com/open-control-systems/mdns-hub/components/http/htcore"
)

// ServerPipeline contains various building blocks for HTTP API.
type ServerPipeline struct {
	server *htcore.Server
}

// ServerPipelineParams provides the components exposed over HTTP API.
type ServerPipelineParams struct {
	// Store - discovered services.
	Store *disstore.Store

	// Browser - browse session state.
	Browser dishttp.BrowseState

	// Advertiser - advertise session state, nil if nothing is advertised.
	Advertiser dishttp.AdvertiseState

	// Server - HTTP server configuration parameters.
	Server htcore.ServerParams
}

// NewServerPipeline initializes all components associated with the HTTP server.
//
// Parameters:
//   - closer - to register handlers for the underlying resource deallocation.
//   - params - components and HTTP server configuration parameters.
func NewServerPipeline(
	closer *core.FanoutCloser,
	params ServerPipelineParams,
) (*ServerPipeline, error) {
	mux := http.NewServeMux()

	server, err := htcore.NewServer(mux, params.Server)
	if err != nil {
		return nil, err
	}
	closer.Add("http-server", server)

	dishttp.Register(mux,
		dishttp.NewServicesHandler(params.Store),
		dishttp.NewStatusHandler(params.Browser, params.Advertiser, params.Store))

	return &ServerPipeline{
		server: server,
	}, nil
}

// URL returns the HTTP server base URL.
func (p *ServerPipeline) URL() string {
	return p.server.URL()
}

// Start starts serving HTTP requests.
func (p *ServerPipeline) Start() error {
	return p.server.Start()
}
