package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/vo"
)

func TestBatchLifecycle(t *testing.T) {
	now := time.Now()
	b := NewBatch("c1", vo.PipelineKindTranscode, 1, []string{"a", "b"}, now)
	assert.NotEmpty(t, b.ID())
	assert.Equal(t, vo.BatchStatusPending, b.Status())
	assert.Equal(t, 2, b.TotalItems())
	assert.True(t, b.Contains("a"))
	assert.False(t, b.Contains("z"))

	// pending批次不计数
	_, err := b.RecordOutcome(vo.ItemOutcomeSuccess, now)
	assert.ErrorIs(t, err, ErrBatchNotProcessing)

	require.NoError(t, b.Claim(now))
	assert.Error(t, b.Claim(now))
	require.NoError(t, b.MarkLaunched(now))
	assert.NotNil(t, b.LaunchedAt())

	done, err := b.RecordOutcome(vo.ItemOutcomeSuccess, now)
	require.NoError(t, err)
	assert.False(t, done)
	done, err = b.RecordOutcome(vo.ItemOutcomeError, now)
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, vo.BatchStatusCompleted, b.Status())
	assert.Equal(t, 1, b.CompletedItems())
	assert.Equal(t, 1, b.FailedItems())
	assert.True(t, b.IsSettled())
	assert.NotNil(t, b.CompletedAt())

	_, err = b.RecordOutcome(vo.ItemOutcomeSuccess, now)
	assert.ErrorIs(t, err, ErrBatchNotProcessing)
}

func TestBatchReleaseAndAbandon(t *testing.T) {
	now := time.Now()
	b := NewBatch("c1", vo.PipelineKindCaption, 2, []string{"a"}, now)

	assert.Error(t, b.Release("nope", now), "pending batch cannot be released")

	require.NoError(t, b.Claim(now))
	require.NoError(t, b.MarkLaunched(now))
	assert.Error(t, b.Abandon("stuck", now), "processing batch cannot be abandoned")

	require.NoError(t, b.Release("compute returned 503", now))
	assert.Equal(t, vo.BatchStatusPending, b.Status())
	assert.Equal(t, "compute returned 503", b.ErrorMessage())
	assert.Nil(t, b.LaunchedAt())

	require.NoError(t, b.Abandon("", now))
	assert.Equal(t, vo.BatchStatusFailed, b.Status())
	assert.Equal(t, "compute returned 503", b.ErrorMessage())
}

func TestBatchCloneIsIndependent(t *testing.T) {
	b := NewBatch("c1", vo.PipelineKindTranscode, 1, []string{"a"}, time.Now())
	c := b.Clone()
	require.NoError(t, c.Claim(time.Now()))

	assert.Equal(t, vo.BatchStatusPending, b.Status())
	assert.Equal(t, b.ID(), c.ID())

	items := b.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a"}, b.Items())
}
