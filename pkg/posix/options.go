package posix

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/halport/pkg/kvstore"
	"github.com/bft-labs/halport/pkg/log"
)

// Option configures optional behavior of a Platform.
type Option func(*options)

// options holds the optional configuration for a Platform instance.
type options struct {
	logger     log.Logger
	registerer prometheus.Registerer
	rebooter   Rebooter
	ifaces     InterfaceSource
	console    io.Writer
	fatal      func(error)
	kvBackend  kvstore.Backend
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:   log.NoopLogger{},
		rebooter: systemRebooter{},
		ifaces:   systemInterfaces{},
		console:  os.Stdout,
		fatal:    func(err error) { panic(err) },
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers the backend's Prometheus collectors with r.
// Without it no metrics are exported.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithRebooter replaces the system reboot call.
func WithRebooter(r Rebooter) Option {
	return func(o *options) {
		o.rebooter = r
	}
}

// WithInterfaceSource replaces the system network interface enumeration.
func WithInterfaceSource(s InterfaceSource) Option {
	return func(o *options) {
		o.ifaces = s
	}
}

// WithConsole sets the writer behind Printf. Default: os.Stdout
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console = w
	}
}

// WithFatalHandler sets the function called on unrecoverable conditions such
// as heap exhaustion with AbortOnExhaustion. Default: panic.
func WithFatalHandler(fn func(error)) Option {
	return func(o *options) {
		o.fatal = fn
	}
}

// WithKVBackend replaces the file backend of the key-value store.
func WithKVBackend(b kvstore.Backend) Option {
	return func(o *options) {
		o.kvBackend = b
	}
}
