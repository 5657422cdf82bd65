package rdl

var defaultOptions = Options{
	WholeLockTries: 2,
	PrevLockTries:  4,
	NextLockTries:  1,
	Skip:           2,
	ScanLimit:      1024,
}

// Options tunes the bounded retries and scan heuristics of Remove and Add.
// Zero fields take the default value.
type Options struct {
	// WholeLockTries is the spin budget for locking the element that Remove
	// is about to detach.
	WholeLockTries int `json:"whole_lock_tries"`

	// PrevLockTries is the spin budget for locking the right bound's prev
	// link in Remove.
	PrevLockTries int `json:"prev_lock_tries"`

	// NextLockTries is the spin budget for locking a left bound's next link.
	NextLockTries int `json:"next_lock_tries"`

	// Skip is how many nodes Remove jumps forward after failing to lock a
	// left bound.
	Skip int `json:"skip"`

	// ScanLimit bounds the number of positions one call visits before it
	// reports ErrTryAgain.
	ScanLimit int `json:"scan_limit"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return defaultOptions
}

func (o Options) withDefaults() Options {
	if o.WholeLockTries <= 0 {
		o.WholeLockTries = defaultOptions.WholeLockTries
	}
	if o.PrevLockTries <= 0 {
		o.PrevLockTries = defaultOptions.PrevLockTries
	}
	if o.NextLockTries <= 0 {
		o.NextLockTries = defaultOptions.NextLockTries
	}
	if o.Skip <= 0 {
		o.Skip = defaultOptions.Skip
	}
	if o.ScanLimit <= 0 {
		o.ScanLimit = defaultOptions.ScanLimit
	}
	return o
}
