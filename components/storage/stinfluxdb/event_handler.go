package stinfluxdb

import (
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
)

// EventHandler stores discovery events in influxDB.
//
// Remarks:
//   - Points are written asynchronously, so the handler never blocks the session poll.
//
// References:
//   - https://docs.influxdata.com/influxdb/cloud/api-guide/client-libraries/go/
type EventHandler struct {
	writeClient api.WriteAPI
	nowFn       func() time.Time
	doneCh      chan struct{}
	closeOnce   sync.Once
}

// NewEventHandler is an initialization of EventHandler.
//
// Parameters:
//   - writeClient - non-blocking influxDB writer.
//   - reporter - to report write errors.
func NewEventHandler(writeClient api.WriteAPI, reporter discovery.ErrorReporter) *EventHandler {
	h := &EventHandler{
		writeClient: writeClient,
		nowFn:       time.Now,
		doneCh:      make(chan struct{}),
	}

	go h.handleErrors(writeClient.Errors(), reporter)

	return h
}

// HandleDiscovered writes the discovered service point.
func (h *EventHandler) HandleDiscovered(service discovery.Service) {
	h.writeClient.WritePoint(newDiscoveredPoint(service, h.nowFn()))
}

// HandleRemoved writes the removed service point.
func (h *EventHandler) HandleRemoved(name string) {
	h.writeClient.WritePoint(newRemovedPoint(name, h.nowFn()))
}

// Close flushes the pending points.
func (h *EventHandler) Close() error {
	h.closeOnce.Do(func() {
		h.writeClient.Flush()
		close(h.doneCh)
	})

	return nil
}

func (h *EventHandler) handleErrors(errCh <-chan error, reporter discovery.ErrorReporter) {
	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return
			}

			if reporter != nil {
				reporter.ReportError(err)
			} else {
				core.LogErr.Printf("influxdb-event-handler: failed to write point: %v\n", err)
			}

		case <-h.doneCh:
			return
		}
	}
}

func newDiscoveredPoint(service discovery.Service, ts time.Time) *write.Point {
	fields := map[string]any{
		"host":      service.Host,
		"port":      service.Port,
		"addresses": strings.Join(service.Addresses, ","),
		"present":   true,
	}

	for key, value := range service.Metadata {
		fields["txt_"+key] = value
	}

	return influxdb2.NewPoint(Measurement,
		map[string]string{"name": service.Name, "event": eventDiscovered},
		fields,
		ts)
}

func newRemovedPoint(name string, ts time.Time) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{"name": name, "event": eventRemoved},
		map[string]any{"present": false},
		ts)
}
