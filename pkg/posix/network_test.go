package posix

import (
	"context"
	"errors"
	"strings"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/halport/pkg/hal"
)

type fakeInterfaces struct {
	list psnet.InterfaceStatList
	err  error
}

func (f fakeInterfaces) Interfaces(context.Context) (psnet.InterfaceStatList, error) {
	return f.list, f.err
}

type fakeRebooter struct {
	called int
	err    error
}

func (f *fakeRebooter) Reboot() error {
	f.called++
	return f.err
}

func testInterfaces() fakeInterfaces {
	return fakeInterfaces{list: psnet.InterfaceStatList{
		{
			Name:  "lo",
			Flags: []string{"up", "loopback"},
			Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}},
		},
		{
			Name:         "eth0",
			HardwareAddr: "02:42:ac:11:00:02",
			Flags:        []string{"up", "broadcast"},
		},
		{
			Name:         "wlan0",
			HardwareAddr: "a4:5e:60:c1:d2:e3",
			Flags:        []string{"up", "broadcast", "multicast"},
			Addrs: psnet.InterfaceAddrList{
				{Addr: "fe80::1/64"},
				{Addr: "192.168.1.100/24"},
			},
		},
	}}
}

func TestNetwork_WifiMacAndIP(t *testing.T) {
	p := newTestPlatform(t, testConfig(t), WithInterfaceSource(testInterfaces()))

	mac, err := p.WifiGetMac()
	require.NoError(t, err)
	require.Equal(t, "A4:5E:60:C1:D2:E3", mac)
	require.Len(t, mac, hal.MacLen-1)

	addr, ip, err := p.WifiGetIP("")
	require.NoError(t, err)
	require.Equal(t, "192.168.1.100", addr.Host())
	require.Equal(t, uint32(0xC0A80164), ip)

	_, _, err = p.WifiGetIP("eth0")
	require.ErrorIs(t, err, hal.Failure)

	_, _, err = p.WifiGetIP("nope0")
	require.ErrorIs(t, err, hal.InvalidArgument)
}

func TestNetwork_ConfiguredWifiName(t *testing.T) {
	cfg := testConfig(t)
	cfg.WifiInterface = "eth0"
	p := newTestPlatform(t, cfg, WithInterfaceSource(testInterfaces()))

	mac, err := p.WifiGetMac()
	require.NoError(t, err)
	require.Equal(t, "02:42:AC:11:00:02", mac)
}

func TestNetwork_NoWifi(t *testing.T) {
	src := fakeInterfaces{list: testInterfaces().list[:2]}
	p := newTestPlatform(t, testConfig(t), WithInterfaceSource(src))

	_, err := p.WifiGetMac()
	require.ErrorIs(t, err, hal.Unsupported)
}

func TestNetwork_NetIsReady(t *testing.T) {
	p := newTestPlatform(t, testConfig(t), WithInterfaceSource(testInterfaces()))
	require.True(t, p.NetIsReady())

	down := testInterfaces()
	down.list[2].Flags = []string{"broadcast"}
	q := newTestPlatform(t, testConfig(t), WithInterfaceSource(down))
	require.False(t, q.NetIsReady())

	broken := newTestPlatform(t, testConfig(t), WithInterfaceSource(fakeInterfaces{err: errors.New("netlink")}))
	require.False(t, broken.NetIsReady())
}

func TestNetwork_NetifInfo(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cellular = CellularInfo{IMEI: "490154203237518", ICCID: "8944500102198304826", IMSI: "310150123456789", MSISDN: "15551234567"}
	p := newTestPlatform(t, cfg, WithInterfaceSource(testInterfaces()))

	info, err := p.NetifInfo()
	require.NoError(t, err)
	require.Equal(t,
		"WiFi|A45E60C1D2E3;Ethernet|0242AC110002;Cellular|imei_490154203237518|iccid_8944500102198304826|imsi_310150123456789|msisdn_15551234567",
		info)
	require.LessOrEqual(t, len(info), hal.NifStrlenMax)
}

func TestNetwork_NetifInfoTruncatesEntries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cellular = CellularInfo{IMEI: strings.Repeat("9", 150)}
	p := newTestPlatform(t, cfg, WithInterfaceSource(testInterfaces()))

	info, err := p.NetifInfo()
	require.NoError(t, err)
	require.Equal(t, "WiFi|A45E60C1D2E3;Ethernet|0242AC110002", info)
}

func TestNetwork_Reboot(t *testing.T) {
	r := &fakeRebooter{}
	p := newTestPlatform(t, testConfig(t), WithRebooter(r))
	require.NoError(t, p.Reboot())
	require.Equal(t, 1, r.called)

	r.err = hal.ErrUnsupported
	require.ErrorIs(t, p.Reboot(), hal.Unsupported)

	r.err = errors.New("EPERM")
	require.ErrorIs(t, p.Reboot(), hal.Failure)
}
