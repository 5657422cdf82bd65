package pool

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go-rdl/pkg/customerrors"
	"go-rdl/pkg/pager"
	"go-rdl/pkg/rdl"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func openMemory(t *testing.T, capacity int) *Pool {
	t.Helper()

	pl, err := Open(pager.InMemory, &Options{Capacity: capacity})
	require.NoError(t, err)
	t.Cleanup(func() { pl.Close() })
	return pl
}

func requireStats(t *testing.T, pl *Pool, enrolled, idle int) {
	t.Helper()

	require.NoError(t, pl.Verify())
	e, i, err := pl.Stats()
	require.NoError(t, err)
	require.Equal(t, enrolled, e)
	require.Equal(t, idle, i)
}

func move(from, to *rdl.List, data uint64) (rdl.Element, error) {
	var (
		e   rdl.Element
		err error
	)
	for {
		if e, err = from.Remove(); !errors.Is(err, customerrors.ErrTryAgain) {
			break
		}
		runtime.Gosched()
	}
	if err != nil {
		return e, err
	}

	e.SetData(data)
	for {
		if err = to.Add(e); !errors.Is(err, customerrors.ErrTryAgain) {
			return e, err
		}
		runtime.Gosched()
	}
}

func TestCreate(t *testing.T) {
	pl := openMemory(t, 3)

	require.Equal(t, 3, pl.Capacity())
	require.Equal(t, MemLen(3), pl.MemLen())
	require.Equal(t, metadataHeaderSize+5*rdl.ElementSize, pl.MemLen())
	require.NotEqual(t, uuid.Nil, pl.ID())
	requireStats(t, pl, 0, 3)
}

func TestInvalidCapacity(t *testing.T) {
	_, err := Open(pager.InMemory, &Options{Capacity: -1})
	require.ErrorIs(t, err, customerrors.ErrInvalidCapacity)

	_, err = Open(pager.InMemory, &Options{Capacity: MaxCapacity + 1})
	require.ErrorIs(t, err, customerrors.ErrInvalidCapacity)

	_, err = Open(pager.InMemory, &Options{})
	require.ErrorIs(t, err, customerrors.ErrInvalidCapacity)
}

func TestRoundTrip(t *testing.T) {
	pl := openMemory(t, 3)

	e, err := move(pl.Idle(), pl.Enrolled(), 0x58)
	require.NoError(t, err)
	requireStats(t, pl, 1, 2)

	got, err := pl.Enrolled().Remove()
	require.NoError(t, err)
	require.Equal(t, e.Ref(), got.Ref())
	require.Equal(t, uint64(0x58), got.Data())

	got.Reset()
	require.NoError(t, pl.Idle().Add(got))
	requireStats(t, pl, 0, 3)

	// the element returned to the idle ring is removed again eventually
	found := false
	for i := 0; i < 3 && !found; i++ {
		next, err := move(pl.Idle(), pl.Enrolled(), uint64(i+1))
		require.NoError(t, err)
		found = next.Ref() == e.Ref()
	}
	require.True(t, found)
}

func TestAttachSharesRings(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "pool.bin")

	first, err := Open(fileName, &Options{Capacity: 8})
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(fileName, &Options{})
	require.NoError(t, err)
	defer second.Close()

	require.Equal(t, first.ID(), second.ID())
	require.Equal(t, 8, second.Capacity())

	_, err = move(first.Idle(), first.Enrolled(), 11)
	require.NoError(t, err)
	requireStats(t, second, 1, 7)

	e, err := second.Enrolled().Remove()
	require.NoError(t, err)
	require.Equal(t, uint64(11), e.Data())
	e.Reset()
	require.NoError(t, second.Idle().Add(e))
	requireStats(t, first, 0, 8)
}

func TestAttachMismatch(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "pool.bin")

	pl, err := Open(fileName, &Options{Capacity: 4})
	require.NoError(t, err)
	require.NoError(t, pl.Close())
	require.ErrorIs(t, pl.Close(), customerrors.ErrClosed)

	_, err = Open(fileName, &Options{Capacity: 5})
	require.ErrorIs(t, err, customerrors.ErrLayoutMismatch)

	garbage := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, make([]byte, MemLen(4)), 0600))
	_, err = Open(garbage, &Options{})
	require.ErrorIs(t, err, customerrors.ErrLayoutMismatch)
}

func TestMetadata(t *testing.T) {
	pl := openMemory(t, 2)

	buf, err := pl.meta.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, metadataHeaderSize)

	m := &metadata{}
	require.NoError(t, m.UnmarshalBinary(buf))
	require.Equal(t, *pl.meta, *m)

	require.Error(t, m.UnmarshalBinary(buf[:10]))
}

func TestConcurrentMappings(t *testing.T) {
	const (
		capacity = 32
		workers  = 4
		rounds   = 1000
	)
	fileName := filepath.Join(t.TempDir(), "pool.bin")

	pools := make([]*Pool, 2)
	for i := range pools {
		pl, err := Open(fileName, &Options{Capacity: capacity})
		require.NoError(t, err)
		defer pl.Close()
		pools[i] = pl
	}

	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		pl := pools[w%len(pools)]
		w := w
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				if _, err := move(pl.Idle(), pl.Enrolled(), uint64(w*rounds+i+1)); err != nil {
					return err
				}
				if _, err := move(pl.Enrolled(), pl.Idle(), 0); err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	requireStats(t, pools[0], 0, capacity)
	requireStats(t, pools[1], 0, capacity)
}
