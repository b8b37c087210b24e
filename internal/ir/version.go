package ir

// Version constants for the IR and the pass.
const (
	// IRVersion is the version of the printed IR format.
	IRVersion = "1"

	// PassVersion is the tracking CSE pass version.
	PassVersion = "0.1.0"
)
