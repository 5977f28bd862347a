// Package halport provides the reference POSIX backend of the IoT hardware
// abstraction layer.
//
// Example usage:
//
//	cfg := halport.DefaultConfig()
//	cfg.DataDir = "/var/lib/mydevice/kv"
//	p, err := halport.Open(ctx, cfg, posix.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Shutdown(context.Background())
//	if err := p.KvSet("device_secret", secret, true); err != nil {
//	    log.Fatal(err)
//	}
package halport

import (
	"context"
	"fmt"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/posix"
)

// Config holds the configuration of the POSIX backend.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = posix.Config

// Option configures the POSIX backend.
type Option = posix.Option

// Platform is the POSIX backend. It implements hal.Platform.
type Platform = posix.Platform

var _ hal.Platform = (*Platform)(nil)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return posix.DefaultConfig()
}

// Open creates the backend and initializes it. The caller owns the returned
// platform and must Shutdown it.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Platform, error) {
	p, err := posix.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create platform: %w", err)
	}
	if err := p.Init(ctx); err != nil {
		return nil, fmt.Errorf("init platform: %w", err)
	}
	return p, nil
}
