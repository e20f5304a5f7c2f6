package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/memory"
)

func sampleKeys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("k%02d", i+1)
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{n: 0, size: 10, want: nil},
		{n: 1, size: 10, want: []int{1}},
		{n: 10, size: 10, want: []int{10}},
		{n: 11, size: 10, want: []int{10, 1}},
		{n: 23, size: 10, want: []int{10, 10, 3}},
		{n: 5, size: 2, want: []int{2, 2, 1}},
		{n: 12, size: 0, want: []int{10, 2}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.size), func(t *testing.T) {
			chunks := Partition(sampleKeys(tt.n), tt.size)
			var sizes []int
			var flat []string
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				flat = append(flat, c...)
			}
			assert.Equal(t, tt.want, sizes)
			if tt.n > 0 {
				assert.Equal(t, sampleKeys(tt.n), flat, "order must be preserved")
			}
		})
	}
}

func TestPlanReplacesExistingBatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	planner := NewBatchPlanner(store.Batches(), 10, nil)

	first, err := planner.Plan(ctx, "c1", vo.PipelineKindTranscode, sampleKeys(23))
	require.NoError(t, err)
	require.Len(t, first, 3)
	for i, b := range first {
		assert.Equal(t, i+1, b.BatchNumber())
		assert.Equal(t, vo.BatchStatusPending, b.Status())
		assert.Equal(t, "c1", b.CourseID())
	}
	assert.Equal(t, 3, first[2].TotalItems())

	// 另一条流水线的批次不受影响
	_, err = planner.Plan(ctx, "c1", vo.PipelineKindCaption, sampleKeys(4))
	require.NoError(t, err)

	second, err := planner.Plan(ctx, "c1", vo.PipelineKindTranscode, sampleKeys(4))
	require.NoError(t, err)
	require.Len(t, second, 1)

	listed, err := store.Batches().ListByCourse(ctx, "c1", vo.PipelineKindTranscode)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second[0].ID(), listed[0].ID())
	_, err = store.Batches().FindByID(ctx, first[0].ID())
	assert.Error(t, err)

	captions, err := store.Batches().ListByCourse(ctx, "c1", vo.PipelineKindCaption)
	require.NoError(t, err)
	assert.Len(t, captions, 1)
}

func TestPlanWithNoKeysClearsBatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	planner := NewBatchPlanner(store.Batches(), 10, nil)

	_, err := planner.Plan(ctx, "c1", vo.PipelineKindTranscode, sampleKeys(3))
	require.NoError(t, err)
	batches, err := planner.Plan(ctx, "c1", vo.PipelineKindTranscode, nil)
	require.NoError(t, err)
	assert.Empty(t, batches)

	listed, err := store.Batches().ListByCourse(ctx, "c1", vo.PipelineKindTranscode)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
