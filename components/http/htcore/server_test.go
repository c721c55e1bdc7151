package htcore

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerStartClose(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/text", func(w http.ResponseWriter, _ *http.Request) {
		WriteText(w, "hello")
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, map[string]int{"port": 5353})
	})

	server, err := NewServer(mux, ServerParams{Host: "127.0.0.1"})
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(server.URL(), "http://127.0.0.1:"))

	require.Nil(t, server.Start())

	for _, tc := range []struct {
		path        string
		contentType string
		body        string
	}{
		{path: "/text", contentType: "text/plain; charset=utf-8", body: "hello"},
		{path: "/json", contentType: "application/json", body: `{"port":5353}`},
	} {
		resp, err := http.Get(server.URL() + tc.path)
		require.Nil(t, err)

		body, err := io.ReadAll(resp.Body)
		require.Nil(t, err)
		require.Nil(t, resp.Body.Close())

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, tc.contentType, resp.Header.Get("Content-Type"))
		require.Equal(t, tc.body, string(body))
	}

	require.Nil(t, server.Close())

	_, err = http.Get(server.URL() + "/text")
	require.NotNil(t, err)
}

func TestServerInvalidAddress(t *testing.T) {
	_, err := NewServer(http.NewServeMux(), ServerParams{Host: "not a host", Port: 1})
	require.NotNil(t, err)
}
