package binutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdw/goqnx6/binutil"
)

func TestIsOnlyZeroesYes(t *testing.T) {
	assert.True(t, binutil.IsOnlyZeroes([]byte{0, 0, 0, 0, 0, 0}))
}

func TestIsOnlyZeroesNo(t *testing.T) {
	assert.False(t, binutil.IsOnlyZeroes([]byte{0, 0, 0, 0, 0, 1}))
}

func TestCString(t *testing.T) {
	assert.Equal(t, "qnx6fs", binutil.CString([]byte{'q', 'n', 'x', '6', 'f', 's', 0, 0, 0}))
	assert.Equal(t, "abc", binutil.CString([]byte{'a', 'b', 'c'}))
	assert.Equal(t, "", binutil.CString([]byte{0, 'x'}))
}

func TestReaderIntegers(t *testing.T) {
	r := binutil.NewReader([]byte{0x22, 0x11, 0x19, 0x68, 0xFF, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	assert.Equal(t, uint16(0x1122), r.Uint16(0))
	assert.Equal(t, uint32(0x68191122), r.Uint32(0))
	assert.Equal(t, uint64(0x04030201FF681911), r.Uint64(1))
	assert.Equal(t, byte(0xFF), r.Byte(4))
}

func TestReaderUint32s(t *testing.T) {
	r := binutil.NewReader([]byte{
		0x07, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
	})
	assert.Equal(t, []uint32{7, 0, 9}, r.Uint32s(0, 3))
}
