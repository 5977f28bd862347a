package posix

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/log"
)

const interfaceQueryTimeout = 2 * time.Second

// InterfaceSource enumerates network interfaces.
type InterfaceSource interface {
	Interfaces(ctx context.Context) (psnet.InterfaceStatList, error)
}

// systemInterfaces reads the host interfaces through gopsutil.
type systemInterfaces struct{}

func (systemInterfaces) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	return psnet.InterfacesWithContext(ctx)
}

// sysClassNet is where Linux exposes per-interface attributes.
var sysClassNet = "/sys/class/net"

func (p *Platform) interfaces() (psnet.InterfaceStatList, error) {
	ctx, cancel := context.WithTimeout(context.Background(), interfaceQueryTimeout)
	defer cancel()
	return p.opts.ifaces.Interfaces(ctx)
}

func hasFlag(ifc psnet.InterfaceStat, flag string) bool {
	for _, f := range ifc.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func isWireless(name string) bool {
	if _, err := os.Stat(filepath.Join(sysClassNet, name, "wireless")); err == nil {
		return true
	}
	return false
}

func isEthernet(name string) bool {
	return strings.HasPrefix(name, "eth") || strings.HasPrefix(name, "en")
}

// wifiInterface picks the Wi-Fi interface: the configured name, else one
// with a wireless sysfs directory, else the first named wl*.
func (p *Platform) wifiInterface(list psnet.InterfaceStatList) (psnet.InterfaceStat, bool) {
	if name := p.cfg.WifiInterface; name != "" {
		for _, ifc := range list {
			if ifc.Name == name {
				return ifc, true
			}
		}
		return psnet.InterfaceStat{}, false
	}
	for _, ifc := range list {
		if isWireless(ifc.Name) {
			return ifc, true
		}
	}
	for _, ifc := range list {
		if strings.HasPrefix(ifc.Name, "wl") {
			return ifc, true
		}
	}
	return psnet.InterfaceStat{}, false
}

// formatMAC normalizes a hardware address to upper-case colon notation.
func formatMAC(addr string) (string, bool) {
	hw, err := net.ParseMAC(addr)
	if err != nil || len(hw) != 6 {
		return "", false
	}
	return strings.ToUpper(hw.String()), true
}

func ipv4Of(ifc psnet.InterfaceStat) (net.IP, bool) {
	for _, a := range ifc.Addrs {
		s := a.Addr
		var ip net.IP
		if strings.Contains(s, "/") {
			parsed, _, err := net.ParseCIDR(s)
			if err != nil {
				continue
			}
			ip = parsed
		} else {
			ip = net.ParseIP(s)
		}
		if v4 := ip.To4(); v4 != nil {
			return v4, true
		}
	}
	return nil, false
}

// WifiGetMac implements hal.Network.
func (p *Platform) WifiGetMac() (string, error) {
	list, err := p.interfaces()
	if err != nil {
		return "", hal.Errorf(hal.Failure, "WifiGetMac", "enumerate interfaces", err)
	}
	ifc, ok := p.wifiInterface(list)
	if !ok {
		return "", hal.Errorf(hal.Unsupported, "WifiGetMac", "no wifi interface", nil)
	}
	mac, ok := formatMAC(ifc.HardwareAddr)
	if !ok {
		return "", hal.Errorf(hal.Failure, "WifiGetMac", "no hardware address on "+ifc.Name, nil)
	}
	return mac, nil
}

// WifiGetIP implements hal.Network.
func (p *Platform) WifiGetIP(ifname string) (hal.NetworkAddr, uint32, error) {
	list, err := p.interfaces()
	if err != nil {
		return hal.NetworkAddr{}, 0, hal.Errorf(hal.Failure, "WifiGetIP", "enumerate interfaces", err)
	}

	var (
		ifc psnet.InterfaceStat
		ok  bool
	)
	if ifname == "" {
		ifc, ok = p.wifiInterface(list)
	} else {
		for _, c := range list {
			if c.Name == ifname {
				ifc, ok = c, true
				break
			}
		}
	}
	if !ok {
		return hal.NetworkAddr{}, 0, hal.Errorf(hal.InvalidArgument, "WifiGetIP", "no interface "+ifname, nil)
	}

	ip, ok := ipv4Of(ifc)
	if !ok {
		return hal.NetworkAddr{}, 0, hal.Errorf(hal.Failure, "WifiGetIP", "no IPv4 address on "+ifc.Name, nil)
	}
	return hal.NewNetworkAddr(ip.String(), 0), binary.BigEndian.Uint32(ip), nil
}

// NetIsReady implements hal.Network.
func (p *Platform) NetIsReady() bool {
	list, err := p.interfaces()
	if err != nil {
		p.logger.Debug("enumerate interfaces", log.Err(err))
		return false
	}
	for _, ifc := range list {
		if !hasFlag(ifc, "up") || hasFlag(ifc, "loopback") {
			continue
		}
		if ip, ok := ipv4Of(ifc); ok && !ip.IsLoopback() {
			return true
		}
	}
	return false
}

// NetifInfo implements hal.Network. Entries are dropped from the end until the
// result fits in hal.NifStrlenMax bytes.
func (p *Platform) NetifInfo() (string, error) {
	list, err := p.interfaces()
	if err != nil {
		return "", hal.Errorf(hal.Failure, "NetifInfo", "enumerate interfaces", err)
	}

	var entries []string
	wifi, hasWifi := p.wifiInterface(list)
	if hasWifi {
		if mac, ok := formatMAC(wifi.HardwareAddr); ok {
			entries = append(entries, "WiFi|"+strings.ReplaceAll(mac, ":", ""))
		}
	}
	for _, ifc := range list {
		if hasWifi && ifc.Name == wifi.Name {
			continue
		}
		if !isEthernet(ifc.Name) {
			continue
		}
		if mac, ok := formatMAC(ifc.HardwareAddr); ok {
			entries = append(entries, "Ethernet|"+strings.ReplaceAll(mac, ":", ""))
			break
		}
	}
	if c := p.cfg.Cellular; c != (CellularInfo{}) {
		entries = append(entries, "Cellular|imei_"+c.IMEI+"|iccid_"+c.ICCID+"|imsi_"+c.IMSI+"|msisdn_"+c.MSISDN)
	}

	for len(entries) > 0 {
		s := strings.Join(entries, ";")
		if len(s) <= hal.NifStrlenMax {
			return s, nil
		}
		entries = entries[:len(entries)-1]
	}
	return "", nil
}

// Rebooter restarts the machine.
type Rebooter interface {
	Reboot() error
}

// Reboot implements hal.Network. On success it does not return.
func (p *Platform) Reboot() error {
	p.logger.Warn("rebooting")
	if err := p.opts.rebooter.Reboot(); err != nil {
		if errors.Is(err, hal.Unsupported) {
			return hal.Errorf(hal.Unsupported, "Reboot", "not supported on this OS", nil)
		}
		return hal.Errorf(hal.Failure, "Reboot", "", err)
	}
	return nil
}
