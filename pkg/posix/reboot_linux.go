//go:build linux

package posix

import "golang.org/x/sys/unix"

type systemRebooter struct{}

// Reboot flushes filesystem buffers and restarts the machine. It needs
// CAP_SYS_BOOT.
func (systemRebooter) Reboot() error {
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
}
