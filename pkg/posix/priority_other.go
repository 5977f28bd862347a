//go:build !linux

package posix

import "github.com/bft-labs/halport/pkg/hal"

func applyPriority(p hal.Priority) error {
	return hal.ErrUnsupported
}
