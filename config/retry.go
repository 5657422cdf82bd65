package config

import (
	"time"

	"go-rdl/pkg/backoff"
	"go-rdl/pkg/rdl"
)

type RetryConfig struct {
	Spins    int
	Yields   int
	MinSleep time.Duration
	MaxSleep time.Duration
}

func NewRetryConfig() *RetryConfig {
	return &RetryConfig{
		Spins:    backoff.Default.Spins,
		Yields:   backoff.Default.Yields,
		MinSleep: backoff.Default.MinSleep,
		MaxSleep: backoff.Default.MaxSleep,
	}
}

func (c *RetryConfig) Backoff() *backoff.Backoff {
	return &backoff.Backoff{
		Spins:    c.Spins,
		Yields:   c.Yields,
		MinSleep: c.MinSleep,
		MaxSleep: c.MaxSleep,
	}
}

type ListConfig struct {
	WholeLockTries int
	PrevLockTries  int
	NextLockTries  int
	Skip           int
	ScanLimit      int
}

func NewListConfig() *ListConfig {
	o := rdl.DefaultOptions()
	return &ListConfig{
		WholeLockTries: o.WholeLockTries,
		PrevLockTries:  o.PrevLockTries,
		NextLockTries:  o.NextLockTries,
		Skip:           o.Skip,
		ScanLimit:      o.ScanLimit,
	}
}

func (c *ListConfig) Options() *rdl.Options {
	return &rdl.Options{
		WholeLockTries: c.WholeLockTries,
		PrevLockTries:  c.PrevLockTries,
		NextLockTries:  c.NextLockTries,
		Skip:           c.Skip,
		ScanLimit:      c.ScanLimit,
	}
}
