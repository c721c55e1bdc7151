package stinfluxdb

import (
	"context"
	"fmt"

	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// LastEventReader reads the UNIX timestamp of the most recent discovery event.
type LastEventReader struct {
	bucket string
	client api.QueryAPI
}

// NewLastEventReader is an initialization of LastEventReader.
func NewLastEventReader(client api.QueryAPI, bucket string) *LastEventReader {
	return &LastEventReader{
		bucket: bucket,
		client: client,
	}
}

// ReadTimestamp reads the most recent discovery event UNIX timestamp from the influxdb.
//
// Remarks:
//   - Returns status.StatusNoData if there are no events for the last 30 days.
func (r *LastEventReader) ReadTimestamp(ctx context.Context) (int64, error) {
	result, err := r.client.Query(ctx, r.query())
	if err != nil {
		return -1, fmt.Errorf("influxdb: failed to query: %w", err)
	}
	defer result.Close()

	if !result.Next() {
		if result.Err() != nil {
			return -1, fmt.Errorf("influxdb: query error: %w", result.Err())
		}

		return -1, status.StatusNoData
	}

	record := result.Record()
	if record == nil {
		return -1, fmt.Errorf("influxdb: no valid record returned")
	}

	return record.Time().Unix(), nil
}

func (r *LastEventReader) query() string {
	return fmt.Sprintf(`
	from(bucket: "%s")
	  |> range(start: -30d)
	  |> filter(fn: (r) => r["_measurement"] == "%s")
	  |> keep(columns: ["_time"])
	  |> sort(columns: ["_time"], desc: true)
	  |> limit(n: 1)`, r.bucket, Measurement)
}
