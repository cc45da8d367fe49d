package types

import "errors"

var (
	// ErrInvalidEncoding is returned when a raw tx payload contains characters
	// outside of the hexadecimal charset
	ErrInvalidEncoding = errors.New("raw transaction must contain only hexadecimal characters")

	// ErrMalformedTransaction is returned when a raw tx payload does not decode
	// as a structurally valid transaction
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrIdentifierMismatch is returned when the caller supplied txid does not
	// match the txid computed from the raw tx payload
	ErrIdentifierMismatch = errors.New("provided txid does not match calculated txid")

	// ErrNotFound is returned when the requested tx does not exist
	ErrNotFound = errors.New("transaction not found")

	// ErrAlreadyExists is returned when a record for the same (txid, network)
	// pair already exists in the store
	ErrAlreadyExists = errors.New("transaction already exists")

	// ErrRejectedByNetwork is returned when the broadcast service explicitly
	// refused the tx
	ErrRejectedByNetwork = errors.New("transaction rejected by the network")

	// ErrServiceUnavailable is returned on transient broadcast service faults
	// (network errors, timeouts, unexpected status codes)
	ErrServiceUnavailable = errors.New("broadcast service unavailable")

	// ErrNotDeletable is returned when trying to delete a tx that is not in a
	// terminal status
	ErrNotDeletable = errors.New("only confirmed or failed transactions can be deleted")
)
