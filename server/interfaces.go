package server

import (
	"context"

	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/reconciler"
	"github.com/mempush/mempush/types"
)

type txDBInterface interface {
	GetTransaction(ctx context.Context, txID string, network networks.Network) (*types.MempoolTransaction, error)
	GetTransactions(ctx context.Context, network *networks.Network) ([]*types.MempoolTransaction, error)
	DeleteTransaction(ctx context.Context, txID string, network networks.Network) error
}

type submitterInterface interface {
	SubmitRawTransaction(ctx context.Context, network networks.Network, rawTx string, expectedTxID string) (*types.MempoolTransaction, error)
	SubmitByTxID(ctx context.Context, network networks.Network, txID string) (*types.MempoolTransaction, error)
}

type reconcilerInterface interface {
	Reconcile(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error)
	Sweep(ctx context.Context, network *networks.Network) (*reconciler.SweepSummary, error)
}
