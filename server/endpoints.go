package server

import (
	"errors"
	"net/http"

	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
)

// Endpoints contains implementations for the mempush endpoints
type Endpoints struct {
	cfg        Config
	registry   *networks.Registry
	txDB       txDBInterface
	submitter  submitterInterface
	reconciler reconcilerInterface
}

// NewEndpoints creates an new instance of endpoints
func NewEndpoints(cfg Config, registry *networks.Registry, txDB txDBInterface, submitter submitterInterface, reconciler reconcilerInterface) *Endpoints {
	return &Endpoints{cfg: cfg, registry: registry, txDB: txDB, submitter: submitter, reconciler: reconciler}
}

// SubmitTransaction accepts a raw tx (or only a txid, in which case the raw
// payload is fetched from the mempool service) and stores a new pending
// record for it. Re-submitting an already known tx returns the existing
// record unchanged.
func (e *Endpoints) SubmitTransaction(httpRequest *http.Request, networkName string, rawTx string, txID *string) (interface{}, Error) {
	network, err := networks.ParseNetwork(networkName)
	if err != nil {
		return RPCErrorResponse(InvalidParamsErrorCode, "invalid network", err, false)
	}

	ctx := httpRequest.Context()

	var tx *types.MempoolTransaction
	if rawTx == "" {
		if txID == nil || *txID == "" {
			return RPCErrorResponse(InvalidParamsErrorCode, "raw transaction or txid is required", nil, false)
		}
		tx, err = e.submitter.SubmitByTxID(ctx, network, *txID)
	} else {
		expectedTxID := ""
		if txID != nil {
			expectedTxID = *txID
		}
		tx, err = e.submitter.SubmitRawTransaction(ctx, network, rawTx, expectedTxID)
	}

	if err != nil {
		return RPCErrorResponse(errorCode(err), err.Error(), err, true)
	}

	return newRPCTransaction(tx, e.explorerURL(tx)), nil
}

// GetTransaction returns the record for the given (txid, network) pair
func (e *Endpoints) GetTransaction(httpRequest *http.Request, networkName string, txID string) (interface{}, Error) {
	network, err := networks.ParseNetwork(networkName)
	if err != nil {
		return RPCErrorResponse(InvalidParamsErrorCode, "invalid network", err, false)
	}

	tx, err := e.txDB.GetTransaction(httpRequest.Context(), txID, network)
	if err != nil {
		return RPCErrorResponse(errorCode(err), err.Error(), err, false)
	}

	return newRPCTransaction(tx, e.explorerURL(tx)), nil
}

// ListTransactions returns all the records, optionally filtered by network,
// ordered by creation time descending
func (e *Endpoints) ListTransactions(httpRequest *http.Request, networkName *string) (interface{}, Error) {
	networkFilter, rpcErr := e.parseNetworkFilter(networkName)
	if rpcErr != nil {
		return nil, rpcErr
	}

	txs, err := e.txDB.GetTransactions(httpRequest.Context(), networkFilter)
	if err != nil {
		return RPCErrorResponse(DefaultErrorCode, err.Error(), err, true)
	}

	rpcTxs := make([]*RPCTransaction, 0, len(txs))
	for _, tx := range txs {
		rpcTxs = append(rpcTxs, newRPCTransaction(tx, e.explorerURL(tx)))
	}

	return rpcTxs, nil
}

// PushTransaction runs one reconciliation pass for the given tx. Transient
// faults are reported inside the result envelope with status "error", the
// call itself only fails when the tx is unknown or the database is
// unreachable.
func (e *Endpoints) PushTransaction(httpRequest *http.Request, networkName string, txID string) (interface{}, Error) {
	network, err := networks.ParseNetwork(networkName)
	if err != nil {
		return RPCErrorResponse(InvalidParamsErrorCode, "invalid network", err, false)
	}

	ctx := httpRequest.Context()

	tx, err := e.txDB.GetTransaction(ctx, txID, network)
	if err != nil {
		return RPCErrorResponse(errorCode(err), err.Error(), err, false)
	}

	updated, err := e.reconciler.Reconcile(ctx, tx)
	if updated == nil {
		// only infrastructure faults leave no record behind
		return RPCErrorResponse(DefaultErrorCode, err.Error(), err, true)
	}
	if err != nil {
		log.Debugf("push of tx %s ended in recoverable fault: %v", tx.Tag(), err)
	}

	return &PushResult{
		TxID:         updated.TxID,
		Network:      updated.Network.String(),
		Status:       updated.Status,
		PushAttempts: updated.PushAttempts,
		LastResult:   updated.LastResult,
	}, nil
}

// DeleteTransaction removes the record for the given (txid, network) pair.
// Only txs in a terminal status (confirmed or failed) can be deleted.
func (e *Endpoints) DeleteTransaction(httpRequest *http.Request, networkName string, txID string) (interface{}, Error) {
	network, err := networks.ParseNetwork(networkName)
	if err != nil {
		return RPCErrorResponse(InvalidParamsErrorCode, "invalid network", err, false)
	}

	ctx := httpRequest.Context()

	tx, err := e.txDB.GetTransaction(ctx, txID, network)
	if err != nil {
		return RPCErrorResponse(errorCode(err), err.Error(), err, false)
	}

	if !tx.IsTerminal() {
		return RPCErrorResponse(InvalidRequestErrorCode, types.ErrNotDeletable.Error(), types.ErrNotDeletable, false)
	}

	if err := e.txDB.DeleteTransaction(ctx, txID, network); err != nil {
		return RPCErrorResponse(errorCode(err), err.Error(), err, true)
	}

	log.Infof("deleted tx %s from the database", tx.Tag())

	return &DeleteResult{TxID: txID, Network: network.String(), Deleted: true}, nil
}

// SweepTransactions reconciles every non confirmed tx, optionally filtered by
// network, and returns the aggregated summary
func (e *Endpoints) SweepTransactions(httpRequest *http.Request, networkName *string) (interface{}, Error) {
	networkFilter, rpcErr := e.parseNetworkFilter(networkName)
	if rpcErr != nil {
		return nil, rpcErr
	}

	summary, err := e.reconciler.Sweep(httpRequest.Context(), networkFilter)
	if err != nil {
		return RPCErrorResponse(DefaultErrorCode, err.Error(), err, true)
	}

	return summary, nil
}

func (e *Endpoints) parseNetworkFilter(networkName *string) (*networks.Network, Error) {
	if networkName == nil || *networkName == "" {
		return nil, nil
	}

	network, err := networks.ParseNetwork(*networkName)
	if err != nil {
		_, rpcErr := RPCErrorResponse(InvalidParamsErrorCode, "invalid network", err, false)
		return nil, rpcErr
	}

	return &network, nil
}

func (e *Endpoints) explorerURL(tx *types.MempoolTransaction) string {
	endpoints, err := e.registry.Resolve(tx.Network)
	if err != nil {
		return ""
	}
	return endpoints.ExplorerURL + "/tx/" + tx.TxID
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidEncoding),
		errors.Is(err, types.ErrMalformedTransaction),
		errors.Is(err, types.ErrIdentifierMismatch),
		errors.Is(err, networks.ErrUnknownNetwork):
		return InvalidParamsErrorCode
	case errors.Is(err, types.ErrNotFound):
		return NotFoundErrorCode
	case errors.Is(err, types.ErrNotDeletable):
		return InvalidRequestErrorCode
	default:
		return DefaultErrorCode
	}
}
