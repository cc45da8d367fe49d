package server

import (
	"encoding/json"
	"time"

	"github.com/mempush/mempush/types"
)

// Request is a jsonrpc Request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a jsonrpc success/error response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Id      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is a jsonrpc error
type ErrorObject struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    *ArgBytes `json:"data,omitempty"`
}

// ArgBytes helps to marshal byte array values provided in the RPC requests
type ArgBytes []byte

// ArgBytesPtr helps to marshal byte array values provided in the RPC requests
func ArgBytesPtr(b []byte) *ArgBytes {
	bb := ArgBytes(b)

	return &bb
}

// NewResponse returns Success/Error response object
func NewResponse(req Request, reply []byte, err Error) Response {
	var result json.RawMessage
	if reply != nil {
		result = reply
	}

	var errorObj *ErrorObject
	if err != nil {
		errorObj = &ErrorObject{
			Code:    err.ErrorCode(),
			Message: err.Error(),
		}
		if err.ErrorData() != nil {
			errorObj.Data = ArgBytesPtr(err.ErrorData())
		}
	}

	return Response{
		JSONRPC: req.JSONRPC,
		Id:      req.ID,
		Result:  result,
		Error:   errorObj,
	}
}

// RPCTransaction is the projection of a tx record returned by the endpoints
type RPCTransaction struct {
	TxID         string    `json:"txid"`
	Network      string    `json:"network"`
	RawTx        string    `json:"rawTx"`
	Status       string    `json:"status"`
	PushAttempts uint64    `json:"pushAttempts"`
	LastResult   string    `json:"lastResult"`
	ExplorerURL  string    `json:"explorerUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PushResult is the envelope returned by the push endpoint. Transient faults
// during reconciliation surface as status "error" inside this envelope, not
// as an RPC error.
type PushResult struct {
	TxID         string `json:"txid"`
	Network      string `json:"network"`
	Status       string `json:"status"`
	PushAttempts uint64 `json:"pushAttempts"`
	LastResult   string `json:"lastResult"`
}

// DeleteResult is the acknowledge returned by the delete endpoint
type DeleteResult struct {
	TxID    string `json:"txid"`
	Network string `json:"network"`
	Deleted bool   `json:"deleted"`
}

func newRPCTransaction(tx *types.MempoolTransaction, explorerURL string) *RPCTransaction {
	return &RPCTransaction{
		TxID:         tx.TxID,
		Network:      tx.Network.String(),
		RawTx:        tx.RawTx,
		Status:       tx.Status,
		PushAttempts: tx.PushAttempts,
		LastResult:   tx.LastResult,
		ExplorerURL:  explorerURL,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}
