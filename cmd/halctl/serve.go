package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bft-labs/halport"
	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/posix"
)

const (
	bootCountKey = "halctl.boot_count"
	lastSeenKey  = "halctl.last_seen"
)

func newServeCmd(c *cli) *cobra.Command {
	var heartbeat time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the backend running and expose its metrics",
		Long: "Keep the backend running, record a boot count and a periodic heartbeat in the\n" +
			"key-value store and serve Prometheus metrics until SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if heartbeat <= 0 {
				return errors.New("heartbeat must be positive")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			p, err := c.open(ctx, posix.WithRegisterer(reg))
			if err != nil {
				return err
			}
			defer c.shutdown(p)

			boots, err := bumpBootCount(p)
			if err != nil {
				return fmt.Errorf("boot count: %w", err)
			}
			c.logger.Info().Uint64("boot_count", boots).Str("time", p.TimeStr()).Msg("backend up")

			tm, err := p.TimerCreate("heartbeat", func(any) {
				var b [8]byte
				binary.BigEndian.PutUint64(b[:], p.UptimeMs())
				// Buffered: the flusher persists it within the flush interval.
				if err := p.KvSet(lastSeenKey, b[:], false); err != nil {
					c.logger.Warn().Err(err).Msg("heartbeat")
				}
			}, nil)
			if err != nil {
				return err
			}
			if err := p.TimerStartPeriodic(tm, int(heartbeat.Milliseconds())); err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				if !p.NetIsReady() {
					http.Error(w, "network not ready", http.StatusServiceUnavailable)
					return
				}
				fmt.Fprintln(w, "ok")
			})
			srv := &http.Server{
				Addr:              c.cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.logger.Info().Str("addr", srv.Addr).Msg("serving metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// Wait for signal or server failure
			select {
			case <-sigCh:
				c.logger.Info().Msg("received signal, stopping...")
			case <-ctx.Done():
			case err = <-errCh:
				c.logger.Error().Err(err).Msg("metrics server failed")
			}

			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				c.logger.Warn().Err(serr).Msg("metrics server shutdown")
			}
			if derr := p.TimerDelete(tm); derr != nil {
				c.logger.Warn().Err(derr).Msg("delete heartbeat timer")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&c.cfg.MetricsAddr, "metrics-addr", c.cfg.MetricsAddr, "listen address for /metrics and /healthz")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 10*time.Second, "interval between heartbeat records")
	return cmd
}

// bumpBootCount increments the persisted boot counter and returns it.
func bumpBootCount(p *halport.Platform) (uint64, error) {
	var b [8]byte
	var count uint64
	n, err := p.KvGet(bootCountKey, b[:])
	switch {
	case err == nil && n == len(b):
		count = binary.BigEndian.Uint64(b[:])
	case err == nil, errors.Is(err, hal.ErrNotFound), errors.Is(err, hal.ErrBufferTooSmall):
		// Missing or malformed counters restart at one.
	default:
		return 0, err
	}
	count++
	binary.BigEndian.PutUint64(b[:], count)
	return count, p.KvSet(bootCountKey, b[:], true)
}
