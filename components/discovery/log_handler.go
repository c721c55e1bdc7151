package discovery

import (
	"strings"

	"github.com/open-control-systems/mdns-hub/components/core"
)

// LogHandler writes discovery notifications to the log.
type LogHandler struct{}

// HandleDiscovered logs the discovered service.
func (LogHandler) HandleDiscovered(service Service) {
	core.LogInf.Printf("discovery: service discovered: name=%q host=%s port=%d addrs=%s txt=%v\n",
		service.Name, service.Host, service.Port, strings.Join(service.Addresses, ","),
		service.Metadata)
}

// HandleRemoved logs the removed service.
func (LogHandler) HandleRemoved(name string) {
	core.LogInf.Printf("discovery: service removed: name=%q\n", name)
}

// LogErrorReporter writes errors to the log.
type LogErrorReporter struct {
	// Source is a component name the errors are reported by.
	Source string
}

// ReportError logs the error.
func (r LogErrorReporter) ReportError(err error) {
	core.LogErr.Printf("%s: %v\n", r.Source, err)
}
