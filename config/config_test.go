package config

import (
	"testing"

	"go-rdl/pkg/backoff"
	"go-rdl/pkg/pager"
	"go-rdl/pkg/rdl"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := New()

	require.Equal(t, "info", c.LogLevel)
	require.Equal(t, pager.InMemory, c.PoolConfig.Path)
	require.Equal(t, 1024, c.PoolConfig.Capacity)
	require.Equal(t, backoff.Default, *c.RetryConfig.Backoff())
	require.Equal(t, rdl.DefaultOptions(), *c.ListConfig.Options())
}
