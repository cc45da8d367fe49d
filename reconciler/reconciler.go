// Package reconciler drives submitted transactions through their lifecycle:
// it checks the mempool service for the current status of each tx, broadcasts
// the ones the service does not know yet and records every outcome in the
// database.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/metrics"
	"github.com/mempush/mempush/types"
)

const (
	confirmedResult = "Transaction is already confirmed in the blockchain"
	inMempoolResult = "Transaction is already present in mempool"
)

// Reconciler implements the per tx state machine and the batch sweep
type Reconciler struct {
	cfg    Config
	txDB   txDBInterface
	client broadcastClientInterface
	stopCh chan struct{}
}

// NewReconciler creates a new Reconciler instance
func NewReconciler(cfg Config, txDB txDBInterface, client broadcastClientInterface) *Reconciler {
	return &Reconciler{
		cfg:    cfg,
		txDB:   txDB,
		client: client,
		stopCh: make(chan struct{}),
	}
}

// Reconcile runs one reconciliation pass for tx:
//
//   - confirmed txs are returned untouched, no I/O happens
//   - the status endpoint is queried first: a confirmed answer moves the tx
//     to confirmed, a known-but-unconfirmed answer moves it to success,
//     neither changes the attempt counter
//   - only the specific not-found answer triggers a broadcast of the stored
//     payload, which increments the attempt counter and moves the tx to
//     success or failed depending on the service response
//   - any other fault moves the tx to error, increments the attempt counter
//     and is returned as a recoverable error next to the persisted record
//
// Every branch persists the mutated record before returning.
func (r *Reconciler) Reconcile(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error) {
	if tx.Status == types.TxStatusConfirmed {
		log.Debugf("tx %s is already confirmed, nothing to do", tx.Tag())
		return tx, nil
	}

	txStatus, err := r.client.GetTransactionStatus(ctx, tx.Network, tx.TxID)

	switch {
	case err == nil:
		if txStatus.Confirmed {
			log.Infof("tx %s is confirmed in the blockchain", tx.Tag())
			return r.persistResult(tx, types.TxStatusConfirmed, confirmedResult, false)
		}
		log.Infof("tx %s is already present in the mempool", tx.Tag())
		return r.persistResult(tx, types.TxStatusSuccess, inMempoolResult, false)

	case errors.Is(err, types.ErrNotFound):
		return r.broadcast(ctx, tx)

	default:
		// network errors, timeouts and unexpected status codes: record the
		// fault and leave the tx retryable for a later sweep
		return r.persistFault(tx, err)
	}
}

func (r *Reconciler) broadcast(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error) {
	log.Infof("tx %s not known by the mempool service, broadcasting", tx.Tag())

	response, err := r.client.BroadcastTransaction(ctx, tx.Network, tx.RawTx)
	if err != nil {
		if errors.Is(err, types.ErrRejectedByNetwork) {
			log.Warnf("tx %s rejected by the network: %s", tx.Tag(), response)
			metrics.BroadcastsTotal.WithLabelValues(tx.Network.String(), "rejected").Inc()
			return r.persistResult(tx, types.TxStatusFailed, response, true)
		}
		return r.persistFault(tx, err)
	}

	log.Infof("tx %s broadcast accepted", tx.Tag())
	metrics.BroadcastsTotal.WithLabelValues(tx.Network.String(), "accepted").Inc()
	return r.persistResult(tx, types.TxStatusSuccess, response, true)
}

// persistResult stores the reconciliation outcome. It deliberately uses a
// fresh context so that an already cancelled sweep cannot leave the record
// half updated.
func (r *Reconciler) persistResult(tx *types.MempoolTransaction, newStatus string, lastResult string, incrementAttempts bool) (*types.MempoolTransaction, error) {
	updated, err := r.txDB.UpdateTransactionResult(context.Background(), tx.TxID, tx.Network, newStatus, lastResult, incrementAttempts)
	if err != nil {
		log.Errorf("error updating tx %s status (%s) in the database, error: %v", tx.Tag(), newStatus, err)
		return nil, err
	}

	metrics.ReconciliationsTotal.WithLabelValues(tx.Network.String(), newStatus).Inc()

	return updated, nil
}

func (r *Reconciler) persistFault(tx *types.MempoolTransaction, fault error) (*types.MempoolTransaction, error) {
	log.Warnf("transient fault reconciling tx %s, error: %v", tx.Tag(), fault)

	updated, err := r.persistResult(tx, types.TxStatusError, fault.Error(), true)
	if err != nil {
		return nil, err
	}

	return updated, fmt.Errorf("reconciliation of tx %s failed: %w", tx.Tag(), fault)
}
