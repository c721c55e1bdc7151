package discovery

// Service is a resolved service instance reported to the application.
type Service struct {
	// Name is a fully qualified service instance name,
	// e.g. "Bonsai GrowLab._http._tcp.local.".
	Name string `json:"name"`

	// Host is the target hostname, e.g. "growlab.local.".
	Host string `json:"host"`

	// Addresses are textual IP addresses, IPv4 addresses go first.
	Addresses []string `json:"addresses"`

	// Port is the service port.
	Port int `json:"port"`

	// Metadata is the TXT record of the service.
	Metadata map[string]string `json:"metadata"`
}
