package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/halport/pkg/hal"
)

func newNetCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "net",
		Short: "Report network identity",
	}

	var ifname string
	info := &cobra.Command{
		Use:   "info",
		Short: "Print Wi-Fi MAC and IP, readiness and the interface summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.shutdown(p)

			out := cmd.OutOrStdout()
			mac, err := p.WifiGetMac()
			switch {
			case err == nil:
				fmt.Fprintf(out, "mac:   %s\n", mac)
			case errors.Is(err, hal.Unsupported) || errors.Is(err, hal.ErrNotFound):
				fmt.Fprintln(out, "mac:   unavailable")
			default:
				return err
			}

			addr, _, err := p.WifiGetIP(ifname)
			if err != nil {
				fmt.Fprintln(out, "ip:    unavailable")
			} else {
				fmt.Fprintf(out, "ip:    %s\n", addr.Host())
			}

			fmt.Fprintf(out, "ready: %t\n", p.NetIsReady())

			netif, err := p.NetifInfo()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "netif: %s\n", netif)
			return nil
		},
	}
	info.Flags().StringVar(&ifname, "iface", "", "interface to report the IP of (default: Wi-Fi)")

	cmd.AddCommand(info)
	return cmd
}

func newRebootCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Restart the host through the HAL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reboot without --yes")
			}
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			// Flush pending writes before the host goes down.
			if err := p.KVStore().Flush(cmd.Context()); err != nil {
				c.logger.Warn().Err(err).Msg("flush before reboot")
			}
			err = p.Reboot()
			c.shutdown(p)
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reboot")
	return cmd
}
