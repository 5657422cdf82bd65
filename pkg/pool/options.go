package pool

import (
	"os"

	"go-rdl/pkg/rdl"
)

var defaultOptions = Options{
	Capacity: 1024,
	FileMode: 0664,
}

// Options represents the configuration options for a pool.
type Options struct {
	// Capacity is the number of elements. It is required to create a pool;
	// when attaching to an existing pool file, 0 takes the capacity stored
	// in the file and any other value must match it.
	Capacity int `json:"capacity"`

	// FileMode is used when the pool file is created.
	FileMode os.FileMode `json:"file_mode"`

	// List tunes the retry budgets of both rings. Nil uses the defaults.
	List *rdl.Options `json:"list"`
}
