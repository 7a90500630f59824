package snaperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndIs(t *testing.T) {
	err := NewDuplicateSnapshot("snapshot %q already exists for %q", "v1", "orders.csv")
	require.Error(t, err)
	assert.True(t, Is(err, KindDuplicateSnapshot))
	assert.False(t, Is(err, KindNotFound))
	assert.Contains(t, err.Error(), "DuplicateSnapshot")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorageUnavailable(cause, "put %q", "sources/orders/data.parquet")
	assert.ErrorIs(t, err, cause)
	se, ok := Of(err, KindStorageUnavailable)
	require.True(t, ok)
	assert.Equal(t, cause, se.Cause)
}

func TestOfUnwrapsThroughFmtErrorf(t *testing.T) {
	base := NewSnapshotNotFound("no snapshot %q", "v9")
	wrapped := fmt.Errorf("resolve failed: %w", base)
	se, ok := Of(wrapped, KindSnapshotNotFound)
	require.True(t, ok)
	assert.Equal(t, base, se)
}
