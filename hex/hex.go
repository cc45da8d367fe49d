// Package hex provides helpers to work with the hex representation of the
// raw transactions handled by the service.
package hex

import (
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// Base represents the hexadecimal base, which is 16
	Base = 16

	// BitSize64 64 bits
	BitSize64 = 64
)

// ErrInvalidCharset is returned when a string contains characters outside of
// [0-9a-fA-F].
var ErrInvalidCharset = errors.New("string contains non hexadecimal characters")

// DecodeString returns the byte representation of the hexadecimal string
func DecodeString(str string) ([]byte, error) {
	return hex.DecodeString(str)
}

// DecodeHex converts a hex string to a byte array
func DecodeHex(str string) ([]byte, error) {
	str = strings.TrimPrefix(str, "0x")

	// ensure even length before decoding so that odd length errors are
	// reported consistently
	if len(str)%2 != 0 {
		str = "0" + str
	}
	return hex.DecodeString(str)
}

// EncodeToString returns the hexadecimal string representation of b
func EncodeToString(b []byte) string {
	return hex.EncodeToString(b)
}

// EncodeToHex generates a hex string based on the byte representation, with the '0x' prefix
func EncodeToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// IsValid checks that str is non empty and contains only characters in
// [0-9a-fA-F]. It does not decode the string.
func IsValid(str string) bool {
	if len(str) == 0 {
		return false
	}
	for _, c := range str {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// CheckValid returns ErrInvalidCharset if str is empty or contains characters
// outside of the hexadecimal charset.
func CheckValid(str string) error {
	if !IsValid(str) {
		return ErrInvalidCharset
	}
	return nil
}
