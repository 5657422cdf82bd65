package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBit(t *testing.T) {
	require.True(t, GetBit(uint8(0b00000001), 0))
	require.True(t, GetBit(uint8(0b00000010), 1))
	require.True(t, GetBit(uint8(0b00000100), 2))
	require.True(t, GetBit(uint8(0b00001000), 3))
	require.True(t, GetBit(uint8(0b00010000), 4))
	require.True(t, GetBit(uint8(0b00100000), 5))
	require.True(t, GetBit(uint8(0b01000000), 6))
	require.True(t, GetBit(uint8(0b10000000), 7))

	require.False(t, GetBit(uint8(0b00000010), 0))
	require.False(t, GetBit(uint8(0b00000100), 1))
	require.False(t, GetBit(uint8(0b00000001), 7))

	require.True(t, GetBit(uint32(3), 0))
	require.True(t, GetBit(uint32(3), 1))
	require.False(t, GetBit(uint32(3), 2))
}

func TestMin(t *testing.T) {
	require.Equal(t, 1, Min(3, 1, 2))
	require.Equal(t, -4, Min(-4))
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, uint32(64), AlignUp(uint32(57), 8))
	require.Equal(t, uint32(64), AlignUp(uint32(64), 8))
	require.Equal(t, 0, AlignUp(0, 8))
	require.Equal(t, 24, AlignUp(17, 8))
}
