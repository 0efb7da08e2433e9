package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRequest_IsBlank(t *testing.T) {
	assert.True(t, ImportRequest{}.IsBlank())
	assert.True(t, ImportRequest{Path: "   "}.IsBlank())
	assert.False(t, ImportRequest{Path: "/tmp/a.txt"}.IsBlank())
}

func TestImportRequest_Label(t *testing.T) {
	assert.Equal(t, "/tmp/a.txt", ImportRequest{Path: "/tmp/a.txt"}.Label())
	assert.Equal(t, "Quarterly", ImportRequest{Path: "/tmp/a.txt", DisplayName: "Quarterly"}.Label())
}

func TestImportMode_IsValid(t *testing.T) {
	assert.True(t, ImportModeNew.IsValid())
	assert.True(t, ImportModeRetry.IsValid())
	assert.False(t, ImportMode("resume").IsValid())
}

func TestCompletion_SettlesOnce(t *testing.T) {
	c := NewCompletion()
	assert.False(t, c.Settled())

	assert.True(t, c.Settle(ImportResult{Outcome: OutcomeSuccess, RecordID: "r1"}))
	assert.False(t, c.Settle(ImportResult{Outcome: OutcomeError, Err: errors.New("late")}))

	assert.True(t, c.Settled())
	assert.Equal(t, OutcomeSuccess, c.Result().Outcome)
	assert.Equal(t, "r1", c.Result().RecordID)
}

func TestCompletion_ConcurrentSettle(t *testing.T) {
	c := NewCompletion()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Settle(ImportResult{Outcome: OutcomeSuccess}) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestCompletion_WaitReturnsFatalError(t *testing.T) {
	c := NewCompletion()
	boom := errors.New("boom")
	c.Settle(ImportResult{Outcome: OutcomeError, Err: boom})

	res, err := c.Wait(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, OutcomeError, res.Outcome)
}

func TestCompletion_WaitCancellationIsNotError(t *testing.T) {
	c := NewCompletion()
	c.Settle(ImportResult{Outcome: OutcomeCancelled})

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
}

func TestCompletion_WaitContextDone(t *testing.T) {
	c := NewCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Settled())
}

func TestCompletion_WaitPrefersSettledResult(t *testing.T) {
	c := NewCompletion()
	c.Settle(ImportResult{Outcome: OutcomeSuccess, Message: "saved"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		res, err := c.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "saved", res.Message)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 1}, []float32{2, 2}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
