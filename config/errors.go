package config

import "errors"

// Validation errors returned by Config.Validate.
//
// Design decision: package-level sentinel errors rather than new error
// instances in Validate. Callers can use errors.Is for programmatic
// handling while the messages stay human-readable.
var (
	// ErrNoStorePath is returned when the page store location is empty.
	// Every crawl needs somewhere to cache pages; use NewConfig for the
	// XDG default.
	ErrNoStorePath = errors.New("no store path specified: set StorePath or keep the default")

	// ErrInvalidThrottleBounds is returned when the delay range is
	// negative or inverted. The minimum must be at least zero and no
	// larger than the maximum.
	ErrInvalidThrottleBounds = errors.New("invalid throttle bounds: min must be non-negative and not exceed max")

	// ErrInvalidStaleness is returned when the staleness window is
	// negative. Use 0 to always refetch.
	ErrInvalidStaleness = errors.New("invalid staleness: must be non-negative days")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMemoCapacity is returned when the memoizer bound is
	// negative. Use 0 for the default capacity.
	ErrInvalidMemoCapacity = errors.New("invalid memo capacity: must be non-negative")

	// ErrInvalidConcurrency is returned when the batch concurrency is
	// not positive. Zero concurrency would mean no crawling at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
