package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
)

func TestLaunchNextClaimsLowestPendingBatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 23)
	h.seedProcessing(t, course)
	_, err := NewBatchPlanner(h.store.Batches(), 10, nil).Plan(ctx, "c1", vo.PipelineKindTranscode, CollectTranscodeItems(course))
	require.NoError(t, err)

	launched, err := h.orch.Launcher().LaunchNext(ctx, "c1", vo.PipelineKindTranscode)
	require.NoError(t, err)
	assert.Equal(t, 1, launched.BatchNumber())
	assert.Equal(t, vo.BatchStatusProcessing, launched.Status())
	assert.NotNil(t, launched.LaunchedAt())

	reqs := h.compute.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, vo.PipelineKindTranscode, req.Kind)
	assert.Equal(t, launched.ID(), req.CorrelationID)
	assert.Len(t, req.ItemKeys, 10)
	assert.Equal(t, videoKey("c1", 1), req.ItemKeys[0])
	assert.Equal(t, "course-media", req.Bucket)
	assert.Equal(t, "hls/c1", req.OutputPrefix)
	assert.Equal(t, "http://pipeline.test/internal/v1/webhooks/transcode", req.CallbackURL)
	assert.Empty(t, req.TargetLanguages)

	// 同一课程同一类型只允许一个processing批次
	_, err = h.orch.Launcher().LaunchNext(ctx, "c1", vo.PipelineKindTranscode)
	assert.ErrorIs(t, err, repo.ErrBatchInFlight)
	assert.Len(t, h.compute.Requests(), 1)
	assert.Contains(t, h.events.Types(), gateway.EventBatchLaunched)
}

func TestLaunchNextWithoutPendingBatches(t *testing.T) {
	h := newHarness(t, testSettings(), nil)
	h.seedProcessing(t, newCourse("c1", 1))

	_, err := h.orch.Launcher().LaunchNext(context.Background(), "c1", vo.PipelineKindTranscode)
	assert.ErrorIs(t, err, repo.ErrNoMoreBatches)
	assert.Empty(t, h.compute.Requests())
}

func TestLaunchNextReleasesBatchOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		compute *fakeCompute
	}{
		{name: "transport error", compute: &fakeCompute{failures: 1}},
		{name: "not accepted", compute: &fakeCompute{reject: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, testSettings(), nil)
			h.compute = tt.compute
			h.orch = NewOrchestrator(OrchestratorDeps{
				PipelineDeps: PipelineDeps{
					Courses:  h.store.Courses(),
					Batches:  h.store.Batches(),
					Storage:  fakeStorage{},
					Events:   h.events,
					Settings: testSettings(),
				},
				Compute: h.compute,
			})
			course := newCourse("c1", 3)
			h.seedProcessing(t, course)
			_, err := NewBatchPlanner(h.store.Batches(), 10, nil).Plan(ctx, "c1", vo.PipelineKindTranscode, CollectTranscodeItems(course))
			require.NoError(t, err)

			_, err = h.orch.Launcher().LaunchNext(ctx, "c1", vo.PipelineKindTranscode)
			var launchErr *LaunchError
			require.True(t, errors.As(err, &launchErr))
			assert.Equal(t, 1, launchErr.BatchNumber)

			batches := h.batches(t, "c1", vo.PipelineKindTranscode)
			require.Len(t, batches, 1)
			assert.Equal(t, vo.BatchStatusPending, batches[0].Status())
			assert.NotEmpty(t, batches[0].ErrorMessage())
			assert.Nil(t, batches[0].LaunchedAt())
			assert.Contains(t, h.events.Types(), gateway.EventBatchLaunchFailed)
		})
	}
}

func TestLaunchNextCaptionOptions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings(), nil)
	course := newCourse("c1", 2)
	attrs := course.Attributes()
	attrs.DefaultLanguage = "EN"
	course.SetAttributes(attrs)
	h.seedProcessing(t, course)
	_, err := NewBatchPlanner(h.store.Batches(), 10, nil).Plan(ctx, "c1", vo.PipelineKindCaption, CollectCaptionItems(course))
	require.NoError(t, err)

	_, err = h.orch.Launcher().LaunchNext(ctx, "c1", vo.PipelineKindCaption)
	require.NoError(t, err)

	req := h.compute.Requests()[0]
	assert.Equal(t, vo.PipelineKindCaption, req.Kind)
	assert.Equal(t, "captions/c1", req.OutputPrefix)
	assert.Equal(t, "en", req.SourceLanguage)
	assert.Equal(t, []string{"en", "vi"}, req.TargetLanguages)
	assert.Equal(t, "http://pipeline.test/internal/v1/webhooks/captions", req.CallbackURL)
}
