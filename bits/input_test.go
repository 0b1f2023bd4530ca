package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputPortBitsSetGet(t *testing.T) {
	i := NewInputPortBits()
	assert.NoError(t, i.Set(InterlockPowerRelay, true))
	assert.True(t, i.Get(InterlockPowerRelay))
	assert.False(t, i.Get(RedundancyOK))
}

func TestInputPortBitsOutOfRange(t *testing.T) {
	i := NewInputPortBits()
	assert.Error(t, i.Set(-1, true))
	assert.Error(t, i.Set(32, true))
}

func TestInputPortBitsAlwaysHighLow(t *testing.T) {
	i := NewInputPortBits()
	assert.True(t, i.Get(AlwaysHigh))
	assert.False(t, i.Get(AlwaysLow))
}

func TestInputPortBitsWriteMask(t *testing.T) {
	i := NewInputPortBits()
	i.SetBitmap(0xFFFFFFFF)
	i.WriteMask(0x000000FF, 0x0000005A)
	assert.Equal(t, uint32(0xFFFFFF5A), i.Bitmap())
}

func TestInputPortBitsBinaryStringWidth(t *testing.T) {
	i := NewInputPortBits()
	assert.Len(t, i.BinaryString(), 32)
}
