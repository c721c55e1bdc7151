package syssched

// ErrorHandler receives the errors of the failed Task runs.
type ErrorHandler interface {
	HandleError(err error)
}
