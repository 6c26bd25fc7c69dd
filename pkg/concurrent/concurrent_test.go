package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenery/pkg/sequence"
)

func TestLimitedWithoutBoundVisitsEveryElement(t *testing.T) {
	var sum atomic.Int64
	err := Limited(context.Background(), sequence.From([]int{1, 2, 3, 4}), 0, func(_ context.Context, v int) error {
		sum.Add(int64(v))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Load())
}

func TestLimitedRespectsWorkerBound(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 16)

	err := Limited(context.Background(), sequence.From(items), 2, func(_ context.Context, _ int) error {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLimitedReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Limited(context.Background(), sequence.From([]int{1, 2, 3}), 1, func(_ context.Context, v int) error {
		if v == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestLimitedRecoversPanics(t *testing.T) {
	err := Limited(context.Background(), sequence.From([]int{1}), 0, func(_ context.Context, _ int) error {
		panic("bad component")
	})
	assert.ErrorIs(t, err, ErrPanicked)
}
