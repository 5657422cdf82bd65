package config

import (
	"os"

	"go-rdl/pkg/pager"
)

type PoolConfig struct {
	// Path of the pool file, ":memory:" for a private pool.
	Path     string
	Capacity int
	FileMode os.FileMode
}

func NewPoolConfig() *PoolConfig {
	return &PoolConfig{
		Path:     pager.InMemory,
		Capacity: 1024,
		FileMode: 0664,
	}
}
