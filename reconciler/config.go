package reconciler

import "github.com/mempush/mempush/config/types"

// Config for the reconciler
type Config struct {
	// Workers is the maximum number of txs reconciled concurrently during a sweep
	Workers uint16 `mapstructure:"Workers"`

	// SweepInterval is the time the reconciler waits between periodic sweeps
	SweepInterval types.Duration `mapstructure:"SweepInterval"`
}
