package syssched

import "github.com/open-control-systems/mdns-hub/components/core"

// Stopper stops an execution started by Starter and waits for it to finish.
type Stopper interface {
	Stop() error
}

// StopCloser allows the stopper to be released by core.FanoutCloser.
func StopCloser(stopper Stopper) core.Closer {
	return core.FuncCloser(stopper.Stop)
}
