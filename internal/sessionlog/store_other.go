//go:build !unix

package sessionlog

// noFollow is unavailable here; Persist still refuses a symlinked target via Lstat.
const noFollow = 0
