package dishttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
	"github.com/open-control-systems/mdns-hub/components/http/htclient"
	"github.com/open-control-systems/mdns-hub/components/storage/stcore"
)

type testHandlerBrowser struct {
	serviceType string
}

func (b *testHandlerBrowser) IsBrowsing() bool {
	return b.serviceType != ""
}

func (b *testHandlerBrowser) ServiceType() string {
	return b.serviceType
}

type testHandlerAdvertiser struct {
	name string
}

func (a *testHandlerAdvertiser) IsAdvertising() bool {
	return a.name != ""
}

func (a *testHandlerAdvertiser) RegisteredName() string {
	return a.name
}

func newTestServer(
	t *testing.T,
	store *disstore.Store,
	advertiser AdvertiseState,
) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	Register(mux, NewServicesHandler(store),
		NewStatusHandler(&testHandlerBrowser{serviceType: "_http._tcp.local."},
			advertiser, store))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newTestStore(t *testing.T) *disstore.Store {
	t.Helper()

	store := disstore.NewStore(&stcore.NoopDB{}, discovery.LogErrorReporter{Source: "test"})

	store.HandleDiscovered(discovery.Service{
		Name:      "beta._http._tcp.local.",
		Host:      "beta.local.",
		Addresses: []string{"192.168.1.2"},
		Port:      80,
		Metadata:  map[string]string{},
	})
	store.HandleDiscovered(discovery.Service{
		Name:      "alpha._http._tcp.local.",
		Host:      "alpha.local.",
		Addresses: []string{"192.168.1.1", "fe80::1"},
		Port:      8080,
		Metadata:  map[string]string{"version": "1.0"},
	})

	return store
}

func newTestClient(baseURL string) *Client {
	return NewClient(context.Background(), htclient.NewDefaultClient(), baseURL+"/",
		time.Second*5)
}

func TestClientServices(t *testing.T) {
	server := newTestServer(t, newTestStore(t), nil)

	items, err := newTestClient(server.URL).Services()
	require.Nil(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "alpha._http._tcp.local.", items[0].Name)
	require.Equal(t, "alpha.local.", items[0].Host)
	require.Equal(t, []string{"192.168.1.1", "fe80::1"}, items[0].Addresses)
	require.Equal(t, 8080, items[0].Port)
	require.Equal(t, "1.0", items[0].Metadata["version"])
	require.NotZero(t, items[0].FirstSeen)

	require.Equal(t, "beta._http._tcp.local.", items[1].Name)
}

func TestClientStatus(t *testing.T) {
	server := newTestServer(t, newTestStore(t),
		&testHandlerAdvertiser{name: "hub._http._tcp.local."})

	st, err := newTestClient(server.URL).Status()
	require.Nil(t, err)

	require.Equal(t, Status{
		Browsing:       true,
		ServiceType:    "_http._tcp.local.",
		Advertising:    true,
		RegisteredName: "hub._http._tcp.local.",
		Services:       2,
	}, st)
}

func TestClientStatusNoAdvertiser(t *testing.T) {
	server := newTestServer(t, newTestStore(t), nil)

	st, err := newTestClient(server.URL).Status()
	require.Nil(t, err)
	require.True(t, st.Browsing)
	require.False(t, st.Advertising)
	require.Empty(t, st.RegisteredName)
}

func TestClientFetchError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestClient(server.URL).Services()
	require.NotNil(t, err)
	require.True(t, strings.Contains(err.Error(), "code=404"))
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, newTestStore(t), nil)

	for _, path := range []string{ServicesPath, StatusPath} {
		resp, err := http.Post(server.URL+path, "application/json", nil)
		require.Nil(t, err)
		require.Nil(t, resp.Body.Close())

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
		require.Equal(t, http.MethodGet, resp.Header.Get("Allow"))
	}
}

func TestServicesHandlerContentType(t *testing.T) {
	rec := httptest.NewRecorder()

	NewServicesHandler(newTestStore(t)).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, ServicesPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "[{"))
}
