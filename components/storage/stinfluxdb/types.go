package stinfluxdb

// DBParams provides various configuration options for influxDB.
type DBParams struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// Valid reports whether all parameters required to connect to influxDB are set.
func (p DBParams) Valid() bool {
	return p.URL != "" && p.Org != "" && p.Token != "" && p.Bucket != ""
}

const (
	// Measurement is the influxDB measurement of the discovery events.
	Measurement = "mdns_discovery"

	eventDiscovered = "discovered"
	eventRemoved    = "removed"
)
