package sessionlog

import "errors"

// Sentinel errors for the sessionlog package, matched with errors.Is.
var (
	// ErrCorrupt is returned by Read when the document is not valid JSON or
	// does not have the {"sessions": [...]} shape.
	ErrCorrupt = errors.New("corrupt session log")

	// ErrSymlink is returned by Persist when the target path is a symbolic link.
	ErrSymlink = errors.New("session log path is a symbolic link")
)
