package build

// Sentinel errors for the build stage. These enable consistent
// classification while keeping user-facing messages descriptive via
// wrapping.

import "errors"

var (
	// ErrGeneratorFailed indicates the generator command returned a non-zero exit status.
	ErrGeneratorFailed = errors.New("generator execution failed")
	// ErrSourceTreeMissing indicates the configured source tree root does not exist.
	ErrSourceTreeMissing = errors.New("source tree not found")
)
