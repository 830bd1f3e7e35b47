//go:build unix

package sessionlog

import "golang.org/x/sys/unix"

// noFollow makes the temp-file open fail instead of following a planted link.
const noFollow = unix.O_NOFOLLOW
