package stinfluxdb

import (
	"context"
	"errors"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/status"
	"github.com/open-control-systems/mdns-hub/components/system/syssched"
)

// Pipeline contains various building blocks for persisting discovery events in influxdb.
type Pipeline struct {
	dbClient influxdb2.Client
	handler  *EventHandler
	runner   *syssched.AsyncTaskRunner
}

// NewPipeline initializes all components associated with the influxdb subsystem.
//
// Parameters:
//   - ctx - parent context.
//   - reporter - to report write errors.
//   - params - various influxDB configuration parameters.
func NewPipeline(
	ctx context.Context,
	reporter discovery.ErrorReporter,
	params DBParams,
) *Pipeline {
	dbClient := influxdb2.NewClient(params.URL, params.Token)
	writeClient := dbClient.WriteAPI(params.Org, params.Bucket)
	queryClient := dbClient.QueryAPI(params.Org)

	checker := &lastEventChecker{
		ctx:    ctx,
		reader: NewLastEventReader(queryClient, params.Bucket),
	}

	runner := syssched.NewAsyncTaskRunner(
		ctx,
		checker,
		checker,
		syssched.AsyncTaskRunnerParams{
			UpdateInterval: time.Second * 5,
			ExitOnSuccess:  true,
		},
	)

	core.LogInf.Printf("influxdb-pipeline: created: url=%s org=%s bucket=%s\n",
		params.URL, params.Org, params.Bucket)

	return &Pipeline{
		dbClient: dbClient,
		handler:  NewEventHandler(writeClient, reporter),
		runner:   runner,
	}
}

// GetEventHandler returns the underlying influxdb event handler.
func (p *Pipeline) GetEventHandler() *EventHandler {
	return p.handler
}

// Start starts the asynchronous check of the previously persisted events.
func (p *Pipeline) Start() error {
	return p.runner.Start()
}

// Stop stops writing events to the DB.
func (p *Pipeline) Stop() error {
	if err := p.runner.Stop(); err != nil {
		return err
	}

	if err := p.handler.Close(); err != nil {
		return err
	}

	p.dbClient.Close()

	return nil
}

type lastEventChecker struct {
	ctx    context.Context
	reader *LastEventReader
}

func (c *lastEventChecker) Run() error {
	timestamp, err := c.reader.ReadTimestamp(c.ctx)
	if err != nil {
		if errors.Is(err, status.StatusNoData) {
			core.LogInf.Println("influxdb-pipeline: no persisted discovery events")

			return nil
		}

		return err
	}

	core.LogInf.Printf("influxdb-pipeline: last persisted discovery event: time=%s\n",
		time.Unix(timestamp, 0).UTC().Format(time.RFC3339))

	return nil
}

func (*lastEventChecker) HandleError(err error) {
	core.LogErr.Printf("influxdb-pipeline: failed to read last event: %v\n", err)
}
