package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
)

func TestRunTwentyThreeVideosEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 23)
	h.seedProcessing(t, course)

	items, err := h.orch.Collect(course, vo.PipelineKindTranscode)
	require.NoError(t, err)
	require.Len(t, items, 23)
	res, err := h.orch.Run(ctx, "c1", vo.PipelineKindTranscode, items)
	require.NoError(t, err)

	batches := h.batches(t, "c1", vo.PipelineKindTranscode)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{10, 10, 3}, []int{batches[0].TotalItems(), batches[1].TotalItems(), batches[2].TotalItems()})
	assert.Equal(t, batches[0].ID(), res.Launched.ID())
	assert.Equal(t, vo.BatchStatusProcessing, batches[0].Status())
	assert.Equal(t, vo.BatchStatusPending, batches[1].Status())

	for _, key := range batches[0].Items() {
		h.success(t, batches[0].ID(), key)
	}
	batches = h.batches(t, "c1", vo.PipelineKindTranscode)
	assert.Equal(t, vo.BatchStatusCompleted, batches[0].Status())
	assert.Equal(t, vo.BatchStatusProcessing, batches[1].Status())
	assert.Equal(t, vo.BatchStatusPending, batches[2].Status())
	require.Len(t, h.compute.Requests(), 2)
	assert.Equal(t, batches[1].ID(), h.compute.Requests()[1].CorrelationID)

	for _, key := range batches[1].Items() {
		h.success(t, batches[1].ID(), key)
	}
	var last *IngestResult
	for _, key := range h.batches(t, "c1", vo.PipelineKindTranscode)[2].Items() {
		last = h.success(t, batches[2].ID(), key)
	}
	require.NotNil(t, last)
	assert.Equal(t, AdvanceFinished, last.Advancement.Action)
	require.NotNil(t, last.Advancement.Finalization)
	assert.True(t, last.Advancement.Finalization.Transitioned)
	assert.Equal(t, vo.CourseStatusPublished, last.Advancement.Finalization.CourseStatus)

	stored, err := h.store.Courses().FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, vo.CourseStatusPublished, stored.Status())
	assert.Empty(t, CollectTranscodeItems(stored))
	assert.Len(t, h.compute.Requests(), 3)
	assert.Contains(t, h.events.Types(), gateway.EventCoursePublished)
	assert.Contains(t, h.events.Types(), gateway.EventPipelineFinished)
}

func TestConcurrentCallbacksLaunchNextBatchOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 20)
	h.seedProcessing(t, course)
	first := startRun(t, h, course, vo.PipelineKindTranscode)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completions := 0
	for _, key := range first.Items() {
		// 每个条目重复投递两次
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				res, err := h.orch.Ingestor().Ingest(ctx, &ItemCallback{
					Kind:          vo.PipelineKindTranscode,
					CorrelationID: first.ID(),
					ItemKey:       key,
					Status:        vo.ItemOutcomeSuccess,
					PlayableURL:   "https://cdn.test/hls/" + key,
				})
				if !assert.NoError(t, err) {
					return
				}
				if res.Record.JustCompleted {
					mu.Lock()
					completions++
					mu.Unlock()
				}
			}(key)
		}
	}
	wg.Wait()

	assert.Equal(t, 1, completions)
	assert.Equal(t, 10, h.store.OutcomeCount(first.ID()))
	assert.Len(t, h.compute.Requests(), 2)

	batches := h.batches(t, "c1", vo.PipelineKindTranscode)
	assert.Equal(t, 10, batches[0].CompletedItems())
	assert.Equal(t, vo.BatchStatusCompleted, batches[0].Status())
	assert.Equal(t, vo.BatchStatusProcessing, batches[1].Status())
}

func TestFinishWithBlockPolicyRevertsToDraft(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.FailurePolicy = vo.FailurePolicyBlock
	h := newHarness(t, settings, nil)
	course := newCourse("c1", 2)
	h.seedProcessing(t, course)
	batch := startRun(t, h, course, vo.PipelineKindTranscode)

	h.success(t, batch.ID(), videoKey("c1", 1))
	res, err := h.orch.Ingestor().Ingest(ctx, &ItemCallback{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: batch.ID(),
		ItemKey:       videoKey("c1", 2),
		Status:        vo.ItemOutcomeError,
		ErrorMessage:  "corrupt source",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Advancement.Finalization)
	assert.Equal(t, vo.CourseStatusDraft, res.Advancement.Finalization.CourseStatus)
	assert.Equal(t, []string{"1 media items failed to transcode"}, res.Advancement.Finalization.Reasons)
	assert.Contains(t, h.events.Types(), gateway.EventCourseReverted)
}

func TestFinishWithToleratePolicyPublishesDespiteFailures(t *testing.T) {
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 1)
	h.seedProcessing(t, course)
	batch := startRun(t, h, course, vo.PipelineKindTranscode)

	res, err := h.orch.Ingestor().Ingest(context.Background(), &ItemCallback{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: batch.ID(),
		ItemKey:       videoKey("c1", 1),
		Status:        vo.ItemOutcomeError,
	})
	require.NoError(t, err)
	assert.Equal(t, vo.CourseStatusPublished, res.Advancement.Finalization.CourseStatus)
}

func TestRerunDiscardsPreviousBatches(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 3)
	h.seedProcessing(t, course)
	old := startRun(t, h, course, vo.PipelineKindTranscode)

	fresh := startRun(t, h, course, vo.PipelineKindTranscode)
	assert.NotEqual(t, old.ID(), fresh.ID())

	// 旧运行的回调不再被接受
	_, err := h.orch.Ingestor().Ingest(ctx, &ItemCallback{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: old.ID(),
		ItemKey:       videoKey("c1", 1),
		Status:        vo.ItemOutcomeSuccess,
		PlayableURL:   "https://cdn.test/stale.m3u8",
	})
	assert.ErrorIs(t, err, repo.ErrBatchNotFound)
}

func TestRunWithoutKeysOnlyClearsBatches(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 2)
	h.seedProcessing(t, course)
	startRun(t, h, course, vo.PipelineKindTranscode)

	res, err := h.orch.Run(ctx, "c1", vo.PipelineKindTranscode, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Launched)
	assert.Empty(t, h.batches(t, "c1", vo.PipelineKindTranscode))
	assert.Len(t, h.compute.Requests(), 1)
}

func TestRunUnknownKind(t *testing.T) {
	h := newHarness(t, testSettings(), nil)
	_, err := h.orch.Run(context.Background(), "c1", vo.PipelineKind("thumbnail"), []string{"a"})
	assert.Error(t, err)
}
