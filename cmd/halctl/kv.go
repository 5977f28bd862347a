package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/halport/pkg/hal"
)

func newKVCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Inspect and edit the persistent key-value store",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.shutdown(p)

			buf := make([]byte, c.cfg.ValueMaxLen)
			n, err := p.KvGet(args[0], buf)
			if errors.Is(err, hal.ErrNotFound) {
				return fmt.Errorf("key %q not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", buf[:n])
			return nil
		},
	}

	var buffered bool
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.shutdown(p)
			// Buffered writes are persisted by the shutdown flush.
			return p.KvSet(args[0], []byte(args[1]), !buffered)
		},
	}
	set.Flags().BoolVar(&buffered, "buffered", false, "write without waiting for durable storage")

	del := &cobra.Command{
		Use:   "del <key>",
		Short: "Delete key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.shutdown(p)
			return p.KvDel(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.shutdown(p)
			for _, k := range p.KVStore().Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.AddCommand(get, set, del, list)
	return cmd
}
