package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Provider errors
	ErrProviderUnreachable = fmt.Errorf("provider unreachable")
	ErrProviderRejected    = fmt.Errorf("provider rejected request")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")

	// Resolution errors
	ErrNoMatchFound    = fmt.Errorf("no match found")
	ErrNoPlayableAsset = fmt.Errorf("no playable asset")
	ErrAssetNotFound   = fmt.Errorf("asset not found")

	// Lifecycle errors
	ErrNotTracked = fmt.Errorf("item not tracked")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
