package htclient

import (
	"io"
	"net/http"

	"github.com/open-control-systems/mdns-hub/components/http/httransport"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

// HTTPClient is a standard HTTP client wrapper to simplify response reading.
type HTTPClient struct {
	http.Client
}

// NewDefaultClient returns a general purpose HTTP client.
func NewDefaultClient() *HTTPClient {
	return &HTTPClient{}
}

// NewResolveClient returns an HTTP client which resolves ".local" hosts with the resolver.
func NewResolveClient(resolver sysnet.Resolver) *HTTPClient {
	return &HTTPClient{
		Client: http.Client{
			Transport: httransport.NewResolveRoundTripper(resolver, http.DefaultTransport),
		},
	}
}

// Do sends a request, receives a response, and fully reads the response body.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return resp, body, nil
}
