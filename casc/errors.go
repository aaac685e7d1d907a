package casc

import "errors"

var (
	// ErrNotFound is returned by Open/OpenByID when no candidate content
	// hash resolves to a complete encoding+index chain.
	ErrNotFound = errors.New("casc: not found")

	// ErrNoActiveBuild is returned by OpenHandler when .build.info contains
	// no row whose Active column is nonzero.
	ErrNoActiveBuild = errors.New("casc: no active build")

	// ErrNotInitialized names the state of a Handler whose init failed or
	// was never completed. No Handler method returns it: OpenHandler returns
	// no Handler when init fails, and the query methods do not check for an
	// uninitialized Handler.
	ErrNotInitialized = errors.New("casc: handler not initialized")
)
