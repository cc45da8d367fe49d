// Package submitter accepts raw transactions into the service: it validates
// and parses the payload, dedupes on (txid, network) and persists new records
// in pending status.
package submitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/metrics"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/txparser"
	"github.com/mempush/mempush/types"
)

// Submitter handles the tx submission flow
type Submitter struct {
	txDB   txDBInterface
	client broadcastClientInterface
}

// NewSubmitter creates a new Submitter instance
func NewSubmitter(txDB txDBInterface, client broadcastClientInterface) *Submitter {
	return &Submitter{txDB: txDB, client: client}
}

// SubmitRawTransaction validates rawTx, derives its txid and persists a new
// pending record for (txid, network). When expectedTxID is not empty it is
// checked (case-insensitively) against the computed txid, failing with
// types.ErrIdentifierMismatch before anything is stored.
//
// Re-submitting a payload whose (txid, network) pair already exists is not an
// error: the existing record is returned unchanged, the stored payload always
// wins.
func (s *Submitter) SubmitRawTransaction(ctx context.Context, network networks.Network, rawTx string, expectedTxID string) (*types.MempoolTransaction, error) {
	txID, err := txparser.ParseRawTransaction(rawTx)
	if err != nil {
		return nil, err
	}

	if expectedTxID != "" && !txparser.MatchesTxID(expectedTxID, txID) {
		return nil, fmt.Errorf("%w: provided %s, calculated %s", types.ErrIdentifierMismatch, expectedTxID, txID)
	}

	existing, err := s.txDB.GetTransaction(ctx, txID, network)
	if err == nil {
		log.Debugf("tx %s already submitted, returning existing record", existing.Tag())
		metrics.DuplicateSubmissionsTotal.WithLabelValues(network.String()).Inc()
		return existing, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	tx := &types.MempoolTransaction{
		TxID:    txID,
		Network: network,
		RawTx:   rawTx,
		Status:  types.TxStatusPending,
	}

	stored, err := s.txDB.AddTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, types.ErrAlreadyExists) {
			// lost the race against a concurrent submission of the same tx
			return s.txDB.GetTransaction(ctx, txID, network)
		}
		return nil, err
	}

	log.Infof("added tx %s to the database", stored.Tag())
	metrics.SubmissionsTotal.WithLabelValues(network.String()).Inc()

	return stored, nil
}

// SubmitByTxID fetches the raw payload for txID from the mempool service of
// the given network and submits it, failing with types.ErrNotFound when the
// service has no such tx. The fetched payload must hash back to txID.
func (s *Submitter) SubmitByTxID(ctx context.Context, network networks.Network, txID string) (*types.MempoolTransaction, error) {
	rawTx, err := s.client.GetRawTransaction(ctx, network, txID)
	if err != nil {
		return nil, err
	}

	return s.SubmitRawTransaction(ctx, network, rawTx, txID)
}
