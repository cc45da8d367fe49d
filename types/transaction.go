package types

import (
	"fmt"
	"time"

	"github.com/mempush/mempush/networks"
)

const (
	// TxStatusPending represents a tx that has been accepted but not broadcast yet
	TxStatusPending string = "pending"
	// TxStatusSuccess represents a tx that is present in the mempool of the broadcast service but not confirmed yet
	TxStatusSuccess string = "success"
	// TxStatusConfirmed represents a tx that has been seen in a block. Terminal
	TxStatusConfirmed string = "confirmed"
	// TxStatusFailed represents a tx whose broadcast was rejected by the network. Terminal
	TxStatusFailed string = "failed"
	// TxStatusError represents a tx whose last reconciliation hit a transient fault, it will be retried by a later sweep
	TxStatusError string = "error"
)

// TxIDLength is the length of a canonical txid rendered as hex
const TxIDLength = 64

// MempoolTransaction represents one submitted transaction on one network.
// TxID, Network and RawTx are immutable after creation, only Status,
// PushAttempts, LastResult and UpdatedAt change afterwards.
type MempoolTransaction struct {
	Id           uint64
	TxID         string
	Network      networks.Network
	RawTx        string
	Status       string
	PushAttempts uint64
	LastResult   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tag returns a short identification of the tx to be used in logs
func (t *MempoolTransaction) Tag() string {
	return fmt.Sprintf("[%s]:%s", t.Network, t.TxID)
}

// IsTerminal returns true when the tx is in a status that no sweep will visit
// again (confirmed or failed)
func (t *MempoolTransaction) IsTerminal() bool {
	return t.Status == TxStatusConfirmed || t.Status == TxStatusFailed
}
