package hex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	testCases := []struct {
		input string
		valid bool
	}{
		{"0123456789abcdefABCDEF", true},
		{"deadbeef", true},
		{"", false},
		{"deadbeeg", false},
		{"dead beef", false},
		{"dead\nbeef", false},
		{"0xdeadbeef", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.valid, IsValid(tc.input), "input: %q", tc.input)
	}
}

func TestCheckValid(t *testing.T) {
	require.NoError(t, CheckValid("00ff"))
	assert.ErrorIs(t, CheckValid("zz"), ErrInvalidCharset)
	assert.ErrorIs(t, CheckValid(""), ErrInvalidCharset)
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("0x01ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff}, b)

	b, err = DecodeHex("1ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff}, b)
}

func TestEncodeToHex(t *testing.T) {
	assert.Equal(t, "0x01ff", EncodeToHex([]byte{0x01, 0xff}))
	assert.Equal(t, "01ff", EncodeToString([]byte{0x01, 0xff}))
}
