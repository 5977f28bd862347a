package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/halport"
	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/haltest"
	"github.com/bft-labs/halport/pkg/log"
	"github.com/bft-labs/halport/pkg/posix"
)

func newSelftestCmd(c *cli) *cobra.Command {
	var (
		filter  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the HAL conformance suite against this host",
		Long: "Run the HAL conformance suite against the POSIX backend. Each case gets a\n" +
			"fresh platform over a scratch directory; the configured data dir is not touched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewZerologAdapterWithLogger(c.logger)
			r := &haltest.Runner{
				NewTarget:   func() (*haltest.Target, error) { return c.selftestTarget(cmd.Context()) },
				Filter:      filter,
				CaseTimeout: timeout,
				Logger:      logger,
			}

			results := r.Run(cmd.Context())
			failed := 0
			out := cmd.OutOrStdout()
			for _, res := range results {
				status := "PASS"
				if !res.Passed {
					status = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%s  %-32s %v\n", status, res.Name, res.Duration.Round(time.Millisecond))
				for _, m := range res.Messages {
					fmt.Fprintf(out, "      %s\n", m)
				}
			}
			if len(results) == 0 {
				return fmt.Errorf("no cases match %q", filter)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(results))
			}
			fmt.Fprintf(out, "ok  %d cases\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "run only cases whose name contains this")
	cmd.Flags().DurationVar(&timeout, "case-timeout", haltest.DefaultCaseTimeout, "per-case timeout")
	return cmd
}

// selftestTarget opens a platform over a scratch directory. Reset reopens
// the same directory without shutting the old platform down.
func (c *cli) selftestTarget(ctx context.Context) (*haltest.Target, error) {
	dir, err := os.MkdirTemp("", "halctl-selftest-")
	if err != nil {
		return nil, err
	}
	cfg := c.cfg.PosixConfig()
	cfg.DataDir = dir
	cfg.KV.Watch = false

	quiet := posix.WithLogger(log.NewNoopLogger())
	var opened []*halport.Platform
	open := func() (*halport.Platform, error) {
		p, err := halport.Open(ctx, cfg, quiet)
		if err != nil {
			return nil, err
		}
		opened = append(opened, p)
		return p, nil
	}

	p, err := open()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &haltest.Target{
		Platform: p,
		Reset:    func() (hal.Platform, error) { return open() },
		Close: func() {
			for _, p := range opened {
				_ = p.Shutdown(context.Background())
			}
			_ = os.RemoveAll(dir)
		},
	}, nil
}
