package cmd

const (
	// OverlayFileFlag Flag to specify the overlay file with the rules bundles are validated against.
	OverlayFileFlag = "overlay-file"
	// NestedFlag Flag to encode overlay fields under "properties".
	NestedFlag = "nested"
	// VerifyDigestsFlag Flag to recompute and compare the digests stored in a bundle.
	VerifyDigestsFlag = "verify-digests"
	// ConcurrencyLimitFlag Flag to bound the number of bundles processed in parallel.
	ConcurrencyLimitFlag = "concurrency-limit"
	// OutputFlag Flag to select the output format of a command.
	OutputFlag = "output"
)
