package rdl

import (
	"sync/atomic"
	"testing"

	"go-rdl/pkg/customerrors"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestWholeLock(t *testing.T) {
	var l uint32

	require.True(t, TryLockWhole(&l))
	require.Equal(t, LockWhole, LockState(&l))
	require.False(t, TryLockWhole(&l))
	require.False(t, TryLockNext(&l))
	require.False(t, TryLockPrev(&l))
	require.Equal(t, LockWhole, LockState(&l))

	require.NoError(t, UnlockWhole(&l))
	require.Equal(t, LockFree, LockState(&l))
	require.ErrorIs(t, UnlockWhole(&l), customerrors.ErrBrokenLock)
}

func TestSubLocks(t *testing.T) {
	var l uint32

	require.True(t, TryLockNext(&l))
	require.False(t, TryLockNext(&l))
	require.False(t, TryLockWhole(&l))

	require.True(t, TryLockPrev(&l))
	require.False(t, TryLockPrev(&l))
	require.Equal(t, LockNext|LockPrev, LockState(&l))

	require.NoError(t, UnlockNext(&l))
	require.ErrorIs(t, UnlockNext(&l), customerrors.ErrBrokenLock)
	require.False(t, TryLockWhole(&l))

	require.NoError(t, UnlockPrev(&l))
	require.ErrorIs(t, UnlockPrev(&l), customerrors.ErrBrokenLock)
	require.Equal(t, LockFree, LockState(&l))
	require.True(t, TryLockWhole(&l))
}

func TestBoundedTries(t *testing.T) {
	var l uint32

	require.True(t, TryLockWholeN(&l, 3))
	require.False(t, TryLockWholeN(&l, 3))
	require.False(t, TryLockNextN(&l, 3))
	require.False(t, TryLockPrevN(&l, 3))
	require.NoError(t, UnlockWhole(&l))

	require.True(t, TryLockNextN(&l, 1))
	require.True(t, TryLockPrevN(&l, 1))
	require.False(t, TryLockWholeN(&l, 5))
	require.False(t, TryLockWholeN(&l, 0))
}

func TestLockString(t *testing.T) {
	require.Equal(t, "free", LockString(LockFree))
	require.Equal(t, "next", LockString(LockNext))
	require.Equal(t, "prev", LockString(LockPrev))
	require.Equal(t, "whole", LockString(LockWhole))
	require.Equal(t, "invalid", LockString(4))
}

func TestSubLocksAreExclusive(t *testing.T) {
	var (
		l          uint32
		inside     atomic.Int32
		violations atomic.Int32
	)

	g := errgroup.Group{}
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 2000; i++ {
				if !TryLockNext(&l) {
					continue
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				inside.Add(-1)
				if err := UnlockNext(&l); err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Zero(t, violations.Load())
	require.Equal(t, LockFree, LockState(&l))
}
