// Package execlist runs a producer/consumer hand-off over a pool: producers
// move free elements from the idle ring to the enrolled ring carrying a
// payload handle, consumers take them back, run the consume routine on the
// payload and return the element to the idle ring. Any number of goroutines,
// and processes attached to the same pool file, may produce and consume
// concurrently.
package execlist

import (
	"context"
	"sync"
	"sync/atomic"

	"go-rdl/pkg/backoff"
	"go-rdl/pkg/customerrors"
	"go-rdl/pkg/pool"
	"go-rdl/pkg/rdl"
	"go-rdl/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConsumeFunc processes one payload handle. The handle's meaning and the
// memory behind it belong to the caller.
type ConsumeFunc func(data uint64)

// Create opens the pool described by opts and returns an execution list over
// it.
func Create(opts *Options) (*ExecList, error) {
	if opts == nil || opts.Consume == nil {
		return nil, errors.New("consume routine is required")
	}

	pl, err := pool.Open(opts.path(), &pool.Options{
		Capacity: opts.Capacity,
		FileMode: opts.FileMode,
		List:     opts.List,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create execution list")
	}

	retry := backoff.Default
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	return &ExecList{
		pool:    pl,
		consume: opts.Consume,
		retry:   retry,
		log:     logger.Component("execlist").WithField("pool", pl.ID().String()),
	}, nil
}

type ExecList struct {
	pool    *pool.Pool
	consume ConsumeFunc
	retry   backoff.Backoff
	log     *logrus.Entry

	// operations hold mu for reading while they touch the pool; Close takes
	// it for writing before unmapping.
	mu     sync.RWMutex
	closed atomic.Bool

	produced atomic.Uint64
	consumed atomic.Uint64
	retries  atomic.Uint64
}

// Produce enrolls data, waiting for a free element as long as ctx allows.
func (l *ExecList) Produce(ctx context.Context, data uint64) error {
	if data == 0 {
		return customerrors.ErrNilData
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return customerrors.ErrClosed
	}

	e, err := l.detach(ctx, l.pool.Idle())
	if err != nil {
		return err
	}
	return l.enroll(e, data)
}

// TryProduce enrolls data if a free element can be taken in a single pass.
// It returns ErrTryAgain otherwise.
func (l *ExecList) TryProduce(data uint64) error {
	if data == 0 {
		return customerrors.ErrNilData
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return customerrors.ErrClosed
	}

	e, err := l.pool.Idle().Remove()
	if err != nil {
		return l.fail(err, "remove from idle list")
	}
	return l.enroll(e, data)
}

// Consume takes one enrolled element, waiting as long as ctx allows, runs
// the consume routine on its payload and releases the element.
func (l *ExecList) Consume(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return customerrors.ErrClosed
	}

	e, err := l.detach(ctx, l.pool.Enrolled())
	if err != nil {
		return err
	}
	return l.release(e)
}

// TryConsume consumes one payload if an enrolled element can be taken in a
// single pass. It returns ErrTryAgain otherwise.
func (l *ExecList) TryConsume() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return customerrors.ErrClosed
	}

	e, err := l.pool.Enrolled().Remove()
	if err != nil {
		return l.fail(err, "remove from enrolled list")
	}
	return l.release(e)
}

// detach removes an element from list, retrying while ctx allows and the
// execution list is open.
func (l *ExecList) detach(ctx context.Context, list *rdl.List) (rdl.Element, error) {
	var e rdl.Element
	err := l.retry.Retry(ctx, func() error {
		if l.closed.Load() {
			return customerrors.ErrClosed
		}
		var err error
		e, err = list.Remove()
		if errors.Is(err, customerrors.ErrTryAgain) {
			l.retried(list, "remove")
		}
		return err
	})
	if err != nil {
		return rdl.Element{}, l.fail(err, "remove from "+list.Type().String()+" list")
	}
	return e, nil
}

// attach adds a detached element to list. Once detached an element must not
// be lost, so the retry ignores cancellation.
func (l *ExecList) attach(list *rdl.List, e rdl.Element) error {
	err := l.retry.Retry(context.Background(), func() error {
		err := list.Add(e)
		if errors.Is(err, customerrors.ErrTryAgain) {
			l.retried(list, "add")
		}
		return err
	})
	return l.fail(err, "add to "+list.Type().String()+" list")
}

func (l *ExecList) retried(list *rdl.List, op string) {
	n := l.retries.Add(1)
	if l.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		l.log.WithFields(logrus.Fields{
			"list":    list.Type().String(),
			"op":      op,
			"retries": n,
		}).Trace("try again")
	}
}

func (l *ExecList) enroll(e rdl.Element, data uint64) error {
	e.SetData(data)
	if err := l.attach(l.pool.Enrolled(), e); err != nil {
		return err
	}
	l.produced.Add(1)
	return nil
}

func (l *ExecList) release(e rdl.Element) error {
	l.consume(e.Data())
	e.Reset()
	if err := l.attach(l.pool.Idle(), e); err != nil {
		return err
	}
	l.consumed.Add(1)
	return nil
}

// fail logs fatal list errors and wraps every error with the failed step.
func (l *ExecList) fail(err error, step string) error {
	if err == nil {
		return nil
	}
	if customerrors.IsFatal(err) {
		l.log.WithError(err).WithField("step", step).Error("list invariant broken")
	} else if !errors.Is(err, customerrors.ErrTryAgain) && !errors.Is(err, customerrors.ErrClosed) {
		l.log.WithError(err).WithField("step", step).Debug("operation abandoned")
	}
	return errors.Wrap(err, step)
}

// MemLen returns the size of the pool region in bytes.
func (l *ExecList) MemLen() int {
	return l.pool.MemLen()
}

// Pool exposes the underlying pool, e.g. to verify it.
func (l *ExecList) Pool() *pool.Pool {
	return l.pool
}

// Stats describes the state of an execution list as seen by this process.
type Stats struct {
	Enrolled int    `json:"enrolled"`
	Idle     int    `json:"idle"`
	Produced uint64 `json:"produced"`
	Consumed uint64 `json:"consumed"`
	Retries  uint64 `json:"retries"`
}

// Stats returns ring sizes, exact only while no operation is in flight, and
// this process's operation counters.
func (l *ExecList) Stats() (Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed.Load() {
		return Stats{}, customerrors.ErrClosed
	}

	enrolled, idle, err := l.pool.Stats()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Enrolled: enrolled,
		Idle:     idle,
		Produced: l.produced.Load(),
		Consumed: l.consumed.Load(),
		Retries:  l.retries.Load(),
	}, nil
}

// Close releases the pool. Operations waiting for an element give up with
// ErrClosed; Close returns once every operation in flight has finished, so
// it must not be called from the consume routine.
// Payloads still enrolled stay in a file-backed pool for other processes.
func (l *ExecList) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return customerrors.ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Close()
}
