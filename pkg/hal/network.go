package hal

import "bytes"

// Buffer sizes of the network introspection contract.
const (
	NetworkAddrLen = 16
	MacLen         = 17 + 1
	NifStrlenMax   = 160
)

// NetworkAddr is a dotted-decimal address in a fixed buffer plus a port.
type NetworkAddr struct {
	Addr [NetworkAddrLen]byte
	Port uint16
}

// NewNetworkAddr copies host into a NetworkAddr, truncating to leave room for
// the terminating NUL.
func NewNetworkAddr(host string, port uint16) NetworkAddr {
	var a NetworkAddr
	copy(a.Addr[:NetworkAddrLen-1], host)
	a.Port = port
	return a
}

// Host returns the address text up to the first NUL.
func (a NetworkAddr) Host() string {
	if i := bytes.IndexByte(a.Addr[:], 0); i >= 0 {
		return string(a.Addr[:i])
	}
	return string(a.Addr[:])
}

// Network is network introspection plus system control.
type Network interface {
	// WifiGetMac returns the Wi-Fi MAC as "XX:XX:XX:XX:XX:XX".
	WifiGetMac() (string, error)

	// WifiGetIP returns the IPv4 address of ifname (the Wi-Fi interface when
	// empty) as text and as a uint32 whose big-endian encoding is the address.
	WifiGetIP(ifname string) (NetworkAddr, uint32, error)

	// NetIsReady reports whether the device has an IPv4 address on an up,
	// non-loopback interface.
	NetIsReady() bool

	// NetifInfo describes all interfaces, at most NifStrlenMax bytes.
	NetifInfo() (string, error)

	// Reboot restarts the device. It does not return on success.
	Reboot() error
}
