package hal

// Version information for the contract.
const (
	// Version is the current version of the contract.
	Version = "1.0.0"

	// MinCompatibleVersion is the oldest contract version a backend may implement.
	MinCompatibleVersion = "1.0.0"
)
