package htcore

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/open-control-systems/mdns-hub/components/core"
)

// Server is a wrapper for http.Server.
type Server struct {
	server http.Server
	ln     net.Listener
	doneCh chan struct{}
	url    string
}

// ServerParams contains server parameters.
type ServerParams struct {
	Host string
	Port int

	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
}

const defaultReadHeaderTimeout = 10 * time.Second

// NewServer creates a new server.
//
// Notes:
//   - The server is not started.
//   - If host is empty, "0.0.0.0" is used.
//   - If port is zero, a random free port is chosen.
//
// References:
//   - The implementation is based on the httptest.Server.
func NewServer(handler http.Handler, params ServerParams) (*Server, error) {
	if params.Host == "" {
		params.Host = "0.0.0.0"
	}

	if params.ReadHeaderTimeout == 0 {
		params.ReadHeaderTimeout = defaultReadHeaderTimeout
	}

	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(params.Host,
		strconv.Itoa(params.Port)))
	if err != nil {
		return nil, fmt.Errorf("http-server: invalid address: %w", err)
	}
	ln, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, fmt.Errorf("http-server: failed to listen: addr=%s: %w", addr, err)
	}

	return &Server{
		server: http.Server{
			Addr:              addr.String(),
			Handler:           handler,
			ReadHeaderTimeout: params.ReadHeaderTimeout,
		},
		ln:     ln,
		doneCh: make(chan struct{}),
		url:    "http://" + ln.Addr().String(),
	}, nil
}

// Start runs the server.
func (s *Server) Start() error {
	core.LogInf.Printf("http-server: starting: url=%s\n", s.url)

	go s.run()

	return nil
}

// Close stops the server and waits until it finishes.
func (s *Server) Close() error {
	err := s.server.Close()

	_ = s.ln.Close()

	<-s.doneCh

	return err
}

// URL returns base URL of form http://ipaddr:port with no trailing slash.
func (s *Server) URL() string {
	return s.url
}

func (s *Server) run() {
	defer close(s.doneCh)

	err := s.server.Serve(s.ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		core.LogErr.Printf("http-server: failed to serve connection: %v\n", err)
	}
}
