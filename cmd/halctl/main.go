package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/halport"
	"github.com/bft-labs/halport/internal/cliconfig"
	"github.com/bft-labs/halport/pkg/log"
	"github.com/bft-labs/halport/pkg/posix"
)

const helpDescription = `
Operate the POSIX reference backend of the IoT hardware abstraction layer.

halctl inspects and edits the persistent key-value store, reports network
identity, runs the conformance suite against the backend on this host and
serves backend metrics for Prometheus.

Configure via $HOME/.halport/config.toml, HALPORT_* environment variables
or flags. Flags win over the environment, which wins over the file.
`

var exampleUsage = strings.TrimSpace(`
  halctl kv set device_secret s3cr3t
  halctl kv get device_secret
  halctl net info
  halctl selftest --filter kv/
  halctl serve --metrics-addr :9464
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration to subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  zerolog.Logger
}

// open creates and initializes a platform from the resolved configuration.
func (c *cli) open(ctx context.Context, opts ...posix.Option) (*halport.Platform, error) {
	opts = append([]posix.Option{posix.WithLogger(log.NewZerologAdapterWithLogger(c.logger))}, opts...)
	return halport.Open(ctx, c.cfg.PosixConfig(), opts...)
}

// shutdown stops p, logging rather than returning the error.
func (c *cli) shutdown(p *halport.Platform) {
	if err := p.Shutdown(context.Background()); err != nil {
		c.logger.Error().Err(err).Msg("shutdown")
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "halctl",
		Short:         "Operate the POSIX reference backend of the IoT HAL",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := c.cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := cliconfig.Resolve(&c.cfg, cfgFile, changed); err != nil {
				return err
			}

			level, err := zerolog.ParseLevel(c.cfg.LogLevel)
			if err != nil {
				return err
			}
			c.logger = c.logger.Level(level)
			c.logger.Debug().Interface("config", c.cfg).Msg("configuration")
			return nil
		},
	}

	cfg := &c.cfg
	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.halport/config.toml)")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding key-value records")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	f.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "maximum delay before a buffered kv write is persisted")
	f.IntVar(&cfg.KeyMaxLen, "key-max-len", cfg.KeyMaxLen, "maximum kv key length in bytes")
	f.IntVar(&cfg.ValueMaxLen, "value-max-len", cfg.ValueMaxLen, "maximum kv value length in bytes")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "pick up kv records changed on disk by other tools")

	f.IntVar(&cfg.MaxHandles, "max-handles", cfg.MaxHandles, "maximum live handles per kind")
	f.IntVar(&cfg.SemaphoreMax, "semaphore-max", cfg.SemaphoreMax, "maximum semaphore count")
	f.DurationVar(&cfg.ThreadDeleteGrace, "thread-delete-grace", cfg.ThreadDeleteGrace, "how long thread delete waits for the thread to return")
	f.IntVar(&cfg.HeapLimit, "heap-limit", cfg.HeapLimit, "bytes the memory facade may hand out (0 = unlimited)")
	f.BoolVar(&cfg.AbortOnExhaustion, "abort-on-exhaustion", cfg.AbortOnExhaustion, "abort instead of failing when the heap limit is hit")

	f.StringVar(&cfg.WifiIface, "wifi-iface", cfg.WifiIface, "Wi-Fi interface (default: autodetect)")
	f.StringVar(&cfg.Cellular.IMEI, "imei", "", "cellular IMEI reported by net info")
	f.StringVar(&cfg.Cellular.ICCID, "iccid", "", "cellular ICCID reported by net info")
	f.StringVar(&cfg.Cellular.IMSI, "imsi", "", "cellular IMSI reported by net info")
	f.StringVar(&cfg.Cellular.MSISDN, "msisdn", "", "cellular MSISDN reported by net info")
	for _, name := range []string{"imsi", "msisdn", "abort-on-exhaustion"} {
		if err := f.MarkHidden(name); err != nil {
			c.logger.Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}

	root.AddCommand(
		newKVCmd(c),
		newNetCmd(c),
		newSelftestCmd(c),
		newServeCmd(c),
		newRebootCmd(c),
	)
	return root
}

func main() {
	c := &cli{
		cfg:    cliconfig.DefaultConfig(),
		logger: cliconfig.Logger(),
	}
	if err := newRootCmd(c).Execute(); err != nil {
		c.logger.Error().Err(err).Msg("halctl")
		os.Exit(1)
	}
}
