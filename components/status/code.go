package status

import "errors"

var (
	// StatusError indicates a failure of an operation.
	StatusError = errors.New("operation failed")

	// StatusInvalidArg indicates that an operation was called with a malformed argument.
	StatusInvalidArg = errors.New("invalid argument")

	// StatusInvalidState indicates that an operation can't be performed due to invalid state.
	StatusInvalidState = errors.New("invalid state")

	// StatusNoData indicates that the requested entity doesn't exist.
	StatusNoData = errors.New("no data")

	// StatusAlreadyExist indicates that the entity is already registered.
	StatusAlreadyExist = errors.New("already exist")

	// StatusClosed indicates that the resource was released and can't be used anymore.
	StatusClosed = errors.New("closed")

	// StatusEngineCreate indicates that the mDNS engine can't be created.
	StatusEngineCreate = errors.New("failed to create mDNS engine")

	// StatusTimeout indicates that an operation didn't complete in time.
	StatusTimeout = errors.New("timeout")

	// StatusNotSupported indicates that an operation isn't supported.
	StatusNotSupported = errors.New("not implemented")
)
