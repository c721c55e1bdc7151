package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/dishttp"
	"github.com/open-control-systems/mdns-hub/components/http/htclient"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
	"github.com/open-control-systems/mdns-hub/components/system/syssched"
)

// HTTPPipeline mirrors the services discovered by the remote hub over HTTP.
//
// Remarks:
//   - Useful when the remote hub is on a network segment the multicast traffic
//     can't reach.
type HTTPPipeline struct {
	id            string
	fetchInterval time.Duration
	ctx           context.Context
	task          syssched.Task
	doneCh        chan struct{}
	started       atomic.Bool
}

// HTTPPipelineParams provides various configuration options for HTTPPipeline.
type HTTPPipelineParams struct {
	// ID - unique pipeline identifier, to distinguish one pipeline from another.
	ID string

	// BaseURL - remote hub API base URL, e.g. "http://growlab.local:8080".
	BaseURL string

	// FetchInterval - how often to fetch services from the remote hub.
	FetchInterval time.Duration

	// FetchTimeout - how long to wait for the response from the remote hub.
	FetchTimeout time.Duration
}

// NewHTTPPipeline initializes HTTP pipeline.
//
// Parameters:
//   - ctx - parent context.
//   - closer - to register all resources that should be closed.
//   - handler - to handle the remote services.
//   - params - various pipeline parameters.
func NewHTTPPipeline(
	ctx context.Context,
	closer *core.FanoutCloser,
	handler discovery.Handler,
	params HTTPPipelineParams,
) *HTTPPipeline {
	resolver := &sysnet.PionMdnsResolver{}
	closer.Add("pion-mdns-resolver", resolver)

	client := dishttp.NewClient(
		ctx,
		htclient.NewResolveClient(resolver),
		params.BaseURL,
		params.FetchTimeout,
	)

	pipeline := &HTTPPipeline{
		id:            params.ID,
		fetchInterval: params.FetchInterval,
		ctx:           ctx,
		task:          NewMirrorTask(client, handler),
		doneCh:        make(chan struct{}),
	}
	closer.Add(params.ID, pipeline)

	return pipeline
}

// Start begins asynchronous services mirroring.
func (p *HTTPPipeline) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return nil
	}

	go p.run()

	return nil
}

// Close waits for the mirroring to finish.
//
// Remarks:
//   - Mirroring is stopped when the parent context is canceled.
func (p *HTTPPipeline) Close() error {
	if !p.started.Load() {
		return nil
	}

	core.LogInf.Printf("%s: stopping\n", p.id)
	<-p.doneCh
	core.LogInf.Printf("%s: stopped\n", p.id)

	return nil
}

func (p *HTTPPipeline) run() {
	ticker := time.NewTicker(p.fetchInterval)
	defer ticker.Stop()
	defer close(p.doneCh)

	for {
		if err := p.task.Run(); err != nil {
			core.LogErr.Printf("%s: failed to mirror services: %v\n", p.id, err)
		}

		select {
		case <-ticker.C:
		case <-p.ctx.Done():
			return
		}
	}
}
