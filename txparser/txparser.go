// Package txparser decodes hex encoded Bitcoin transactions and derives their
// canonical txid.
package txparser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
	"github.com/mempush/mempush/hex"
	"github.com/mempush/mempush/types"
)

// ParseRawTransaction decodes a hex encoded transaction and returns its
// canonical txid as a 64 character lower case hex string.
//
// The hexadecimal charset is validated before attempting the structural
// decode, malformed hex never reaches the wire deserializer. It fails with
// types.ErrInvalidEncoding for charset violations and with
// types.ErrMalformedTransaction when the payload is not a structurally valid
// transaction.
func ParseRawTransaction(rawTx string) (string, error) {
	if err := hex.CheckValid(rawTx); err != nil {
		return "", fmt.Errorf("%w: %s", types.ErrInvalidEncoding, rawTx)
	}

	raw, err := hex.DecodeString(strings.ToLower(rawTx))
	if err != nil {
		// odd length hex passes the charset check but can't be decoded
		return "", fmt.Errorf("%w: %v", types.ErrMalformedTransaction, err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrMalformedTransaction, err)
	}

	// the txid is the double-SHA256 of the non-witness serialization
	return tx.TxHash().String(), nil
}

// NormalizeTxID lower-cases a txid so that caller supplied values compare
// equal to computed ones regardless of case.
func NormalizeTxID(txID string) string {
	return strings.ToLower(txID)
}

// MatchesTxID reports whether the caller supplied txid matches the computed
// one, comparing case-insensitively.
func MatchesTxID(supplied, computed string) bool {
	return NormalizeTxID(supplied) == NormalizeTxID(computed)
}
