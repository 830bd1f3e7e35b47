package lockfile

import "errors"

// ErrBusy is returned by Acquire when another process holds a live marker.
// Callers treat it as "skip this invocation", never as a failure.
var ErrBusy = errors.New("lock busy")
