package fetcher

import "errors"

// Acquisition failures are all recoverable: callers skip the URL and keep
// the discovery loop going. Match with errors.Is.
var (
	ErrPolicyDenied           = errors.New("robots policy denies fetch")
	ErrFetchTimeout           = errors.New("fetch timed out")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrParseFailure           = errors.New("failed to parse document")
)
