package ir

// Version constants stamped on stored runs.
const (
	// IRVersion is the stored value schema version.
	IRVersion = "1"

	// EngineVersion is the traversal engine version. Bump it whenever the
	// handler graph changes, since stored traces stop being comparable.
	EngineVersion = "0.3.0"
)
