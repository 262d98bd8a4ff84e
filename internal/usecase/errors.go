package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
)

// Snapshot fetch and tracking failures. Adapters mark their errors with these
// so callers can branch with crerr.Is.
var (
	ErrRateLimited    = crerr.New("provider rate limited")
	ErrTransient      = crerr.New("provider transient failure")
	ErrFatal          = crerr.New("provider fatal failure")
	ErrDataMissing    = crerr.New("snapshot data missing")
	ErrQuotaExhausted = crerr.New("request quota exhausted")
)
