//go:build !linux

package posix

import "github.com/bft-labs/halport/pkg/hal"

type systemRebooter struct{}

func (systemRebooter) Reboot() error {
	return hal.ErrUnsupported
}
