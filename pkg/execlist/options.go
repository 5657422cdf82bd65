package execlist

import (
	"os"

	"go-rdl/pkg/backoff"
	"go-rdl/pkg/pager"
	"go-rdl/pkg/rdl"
)

// Options represents the configuration of an execution list.
type Options struct {
	// Path of the pool file shared with other processes. Empty or
	// ":memory:" keeps the pool in this process.
	Path string `json:"path"`

	// Capacity is the number of elements, i.e. how many payloads can be
	// enrolled at once. 0 attaches to an existing pool file as it is.
	Capacity int `json:"capacity"`

	FileMode os.FileMode `json:"file_mode"`

	// Consume is called with every consumed payload.
	Consume ConsumeFunc `json:"-"`

	// Retry is the backoff used while waiting for the lists. Nil uses
	// backoff.Default.
	Retry *backoff.Backoff `json:"retry"`

	List *rdl.Options `json:"list"`
}

func (o *Options) path() string {
	if o.Path == "" {
		return pager.InMemory
	}
	return o.Path
}
