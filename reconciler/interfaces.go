package reconciler

import (
	"context"

	"github.com/mempush/mempush/broadcaster"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
)

type txDBInterface interface {
	GetTransactionsToReconcile(ctx context.Context, network *networks.Network) ([]*types.MempoolTransaction, error)
	UpdateTransactionResult(ctx context.Context, txID string, network networks.Network, newStatus string, lastResult string, incrementAttempts bool) (*types.MempoolTransaction, error)
}

type broadcastClientInterface interface {
	GetTransactionStatus(ctx context.Context, network networks.Network, txID string) (*broadcaster.TxStatus, error)
	BroadcastTransaction(ctx context.Context, network networks.Network, rawTx string) (string, error)
}
