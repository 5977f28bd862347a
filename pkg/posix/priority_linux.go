//go:build linux

package posix

import (
	"golang.org/x/sys/unix"

	"github.com/bft-labs/halport/pkg/hal"
)

// applyPriority sets the nice value of the calling OS thread. The caller must
// hold runtime.LockOSThread.
func applyPriority(p hal.Priority) error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), niceValue(p))
}
