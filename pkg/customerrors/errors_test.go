package customerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIsFatal(t *testing.T) {
	require.True(t, IsFatal(errors.Wrap(ErrBrokenLock, "unlock next")))
	require.True(t, IsFatal(errors.Wrap(ErrCorruptRing, "walk")))
	require.False(t, IsFatal(errors.Wrap(ErrTryAgain, "remove")))
	require.False(t, IsFatal(ErrInvalidElement))
	require.False(t, IsFatal(nil))
}
