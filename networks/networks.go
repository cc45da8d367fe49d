// Package networks holds the closed catalog of Bitcoin networks the service
// can broadcast to and the mempool/explorer endpoints for each of them.
package networks

import (
	"fmt"
)

// Network identifies one of the supported Bitcoin networks
type Network string

const (
	// Mainchain is the Bitcoin main network
	Mainchain Network = "mainchain"
	// TestnetV3 is the Bitcoin testnet3 network
	TestnetV3 Network = "testnetv3"
	// TestnetV4 is the Bitcoin testnet4 network
	TestnetV4 Network = "testnetv4"
	// Signet is the Bitcoin signet network
	Signet Network = "signet"
)

// All returns the closed set of supported networks
func All() []Network {
	return []Network{Mainchain, TestnetV3, TestnetV4, Signet}
}

// ErrUnknownNetwork is returned when a network selector is outside of the
// supported set
var ErrUnknownNetwork = fmt.Errorf("unknown network")

// ParseNetwork converts a network selector into a Network, failing with
// ErrUnknownNetwork for any value outside of the supported set
func ParseNetwork(name string) (Network, error) {
	switch Network(name) {
	case Mainchain, TestnetV3, TestnetV4, Signet:
		return Network(name), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
}

// String returns the network selector
func (n Network) String() string {
	return string(n)
}

// UnmarshalText parses a network selector from text, it allows Network values
// to be decoded from config files and RPC params
func (n *Network) UnmarshalText(data []byte) error {
	network, err := ParseNetwork(string(data))
	if err != nil {
		return err
	}
	*n = network
	return nil
}

// Endpoints are the service URLs for one network
type Endpoints struct {
	// MempoolURL is the base URL of the mempool service used to query tx status and broadcast txs
	MempoolURL string `mapstructure:"MempoolURL"`

	// ExplorerURL is the base URL of the block explorer used to build user facing links
	ExplorerURL string `mapstructure:"ExplorerURL"`
}

// Registry resolves networks to their service endpoints. It is built once at
// startup and read only afterwards.
type Registry struct {
	endpoints map[Network]Endpoints
}

// DefaultEndpoints returns the default mempool/explorer URLs for every
// supported network
func DefaultEndpoints() map[Network]Endpoints {
	return map[Network]Endpoints{
		Mainchain: {MempoolURL: "https://mempool.space/api", ExplorerURL: "https://mempool.space"},
		TestnetV3: {MempoolURL: "https://mempool.space/testnet/api", ExplorerURL: "https://mempool.space/testnet"},
		TestnetV4: {MempoolURL: "https://mempool.space/testnet4/api", ExplorerURL: "https://mempool.space/testnet4"},
		Signet:    {MempoolURL: "https://mempool.space/signet/api", ExplorerURL: "https://mempool.space/signet"},
	}
}

// NewRegistry creates a registry with the default endpoints, overridden per
// network with the entries in overrides (keyed by network selector)
func NewRegistry(overrides map[string]Endpoints) (*Registry, error) {
	endpoints := DefaultEndpoints()

	for name, override := range overrides {
		network, err := ParseNetwork(name)
		if err != nil {
			return nil, err
		}
		entry := endpoints[network]
		if override.MempoolURL != "" {
			entry.MempoolURL = override.MempoolURL
		}
		if override.ExplorerURL != "" {
			entry.ExplorerURL = override.ExplorerURL
		}
		endpoints[network] = entry
	}

	return &Registry{endpoints: endpoints}, nil
}

// Resolve returns the endpoints for the given network, failing with
// ErrUnknownNetwork for networks outside of the supported set
func (r *Registry) Resolve(network Network) (Endpoints, error) {
	endpoints, found := r.endpoints[network]
	if !found {
		return Endpoints{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return endpoints, nil
}
