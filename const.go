package match

const (
	// EngineVersion is the current version of the matching engine
	EngineVersion = "v1.0.0"

	// defaultRingBufferSize is the mailbox capacity of a MatchingEngine. Must be a power of 2.
	defaultRingBufferSize = 4096
)
