package pager

import (
	"os"
	"path/filepath"
	"testing"

	"go-rdl/pkg/customerrors"

	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	calls := 0
	p, err := Open(InMemory, 100, 0, func(data []byte, fresh bool) error {
		calls++
		require.True(t, fresh)
		require.Len(t, data, 100)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 100, p.Size())
	require.True(t, p.Fresh())
	require.NoError(t, p.Flush())

	require.NoError(t, p.Close())
	require.ErrorIs(t, p.Close(), customerrors.ErrClosed)

	_, err = Open(InMemory, 0, 0, nil)
	require.ErrorIs(t, err, customerrors.ErrInvalidCapacity)
}

func TestFileSharedBetweenMappings(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "nested", "region.bin")

	first, err := Open(fileName, 4096, 0600, func(data []byte, fresh bool) error {
		require.True(t, fresh)
		data[10] = 42
		return nil
	})
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(fileName, 0, 0600, func(data []byte, fresh bool) error {
		require.False(t, fresh)
		require.Equal(t, byte(42), data[10])
		return nil
	})
	require.NoError(t, err)
	defer second.Close()

	require.False(t, second.Fresh())
	require.Equal(t, 4096, second.Size())

	second.Data()[11] = 7
	require.Equal(t, byte(7), first.Data()[11])
	require.NotSame(t, &first.Data()[0], &second.Data()[0])

	fi, err := os.Stat(fileName)
	require.NoError(t, err)
	require.Equal(t, int64(4096), fi.Size())
}

func TestFileSizeMismatch(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "region.bin")

	p, err := Open(fileName, 4096, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = Open(fileName, 8192, 0600, nil)
	require.ErrorIs(t, err, customerrors.ErrLayoutMismatch)

	empty := filepath.Join(t.TempDir(), "empty.bin")
	_, err = Open(empty, 0, 0600, nil)
	require.ErrorIs(t, err, customerrors.ErrInvalidCapacity)
}
