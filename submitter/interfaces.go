package submitter

import (
	"context"

	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
)

type txDBInterface interface {
	AddTransaction(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error)
	GetTransaction(ctx context.Context, txID string, network networks.Network) (*types.MempoolTransaction, error)
}

type broadcastClientInterface interface {
	GetRawTransaction(ctx context.Context, network networks.Network, txID string) (string, error)
}
