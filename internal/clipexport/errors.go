package clipexport

import "errors"

// ErrInvalidOperation marks an export step that failed because it was
// called before the service's state was ready for it — e.g. extracting
// before the active recording has been set. Per the export error kind
// taxonomy, only this kind is retried; every other failure (bad
// arguments, subprocess failure, missing file) fails the export
// immediately.
var ErrInvalidOperation = errors.New("clipexport: invalid operation")
