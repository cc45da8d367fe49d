package broadcaster

import "github.com/mempush/mempush/config/types"

// Config for the mempool service client
type Config struct {
	// RequestTimeout is the timeout applied to every call to the mempool service
	RequestTimeout types.Duration `mapstructure:"RequestTimeout"`
}
