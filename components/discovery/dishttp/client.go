package dishttp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
	"github.com/open-control-systems/mdns-hub/components/http/htclient"
)

// Client fetches the discovered services from the remote hub.
type Client struct {
	services *htclient.URLFetcher
	status   *htclient.URLFetcher
}

// NewClient is an initialization of Client.
//
// Parameters:
//   - ctx - parent context for HTTP requests.
//   - client to perform HTTP requests, e.g. the one resolving ".local" hosts.
//   - baseURL - hub base URL, e.g. "http://growlab.local:8080".
//   - timeout - HTTP request timeout.
func NewClient(
	ctx context.Context,
	client *htclient.HTTPClient,
	baseURL string,
	timeout time.Duration,
) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		services: htclient.NewURLFetcher(ctx, client, baseURL+ServicesPath, timeout),
		status:   htclient.NewURLFetcher(ctx, client, baseURL+StatusPath, timeout),
	}
}

// Services returns the services discovered by the remote hub.
func (c *Client) Services() ([]disstore.Item, error) {
	var items []disstore.Item
	if err := fetchJSON(c.services, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// Status returns the state of the remote hub sessions.
func (c *Client) Status() (Status, error) {
	var st Status
	if err := fetchJSON(c.status, &st); err != nil {
		return Status{}, err
	}

	return st, nil
}

func fetchJSON(fetcher *htclient.URLFetcher, value any) error {
	buf, err := fetcher.Fetch()
	if err != nil {
		return fmt.Errorf("discovery-client: failed to fetch: %w", err)
	}

	if err := json.Unmarshal(buf, value); err != nil {
		return fmt.Errorf("discovery-client: failed to decode response: %w", err)
	}

	return nil
}
