package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCollectsAllResultsInOrder(t *testing.T) {
	p := New(4)
	results, err := Map(context.Background(), p, 10, func(_ context.Context, i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestMapRespectsConcurrencyLimit(t *testing.T) {
	p := New(2)
	var inFlight, maxSeen int32
	_, err := Map(context.Background(), p, 20, func(_ context.Context, i int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if cur <= old || atomic.CompareAndSwapInt32(&maxSeen, old, cur) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
		return i, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 2)
}

func TestMapPropagatesFirstError(t *testing.T) {
	p := New(4)
	sentinel := errors.New("boom")
	_, err := Map(context.Background(), p, 5, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, sentinel
		}
		return i, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestMapZeroTasks(t *testing.T) {
	p := New(4)
	results, err := Map(context.Background(), p, 0, func(_ context.Context, i int) (int, error) {
		t.Fatal("should not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewClampsCoreNumberToOne(t *testing.T) {
	p := New(0)
	assert.Equal(t, int64(1), p.limit)
}
