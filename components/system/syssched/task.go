package syssched

// Task is a unit of periodic work, e.g. delivering queued discovery events.
type Task interface {
	// Run performs a single iteration of the work.
	Run() error
}
