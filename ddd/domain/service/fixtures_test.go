package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/memory"
)

func validAttributes() entity.CourseAttributes {
	return entity.CourseAttributes{
		Title:            "Go in Production",
		Description:      "<p>Build <b>real</b> services</p>",
		Category:         "programming",
		Level:            "intermediate",
		IsFree:           false,
		Price:            19.9,
		LearningOutcomes: []string{"channels", "contexts", "testing", "profiling"},
		Requirements:     []string{"basic programming"},
		IntendedLearners: []string{"backend developers"},
		DefaultLanguage:  "en",
	}
}

func videoKey(courseID string, n int) string {
	return fmt.Sprintf("videos/%s/lecture-%02d.mp4", courseID, n)
}

// newCourse 一个章节, videos个已上传未转码的视频课时, 外加一个文章课时
func newCourse(id string, videos int) *entity.Course {
	course := entity.NewCourse(id, validAttributes())
	section := entity.NewSection(id+"-s1", "Basics", 1)
	for i := 1; i <= videos; i++ {
		l := entity.NewLecture(fmt.Sprintf("%s-l%02d", id, i), fmt.Sprintf("Lecture %d", i), vo.LectureTypeVideo, i)
		l.AttachMedia(videoKey(id, i))
		section.AddLecture(l)
	}
	section.AddLecture(entity.NewLecture(id+"-article", "Reading", vo.LectureTypeArticle, videos+1))
	course.AddSection(section)
	return course
}

type fakeCompute struct {
	mu       sync.Mutex
	requests []*gateway.ComputeRequest
	failures int
	reject   bool
}

func (f *fakeCompute) Launch(_ context.Context, req *gateway.ComputeRequest) (*gateway.ComputeAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("compute unavailable")
	}
	if f.reject {
		return &gateway.ComputeAck{Accepted: false}, nil
	}
	return &gateway.ComputeAck{Accepted: true, JobID: "job-" + req.CorrelationID}, nil
}

func (f *fakeCompute) Requests() []*gateway.ComputeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gateway.ComputeRequest(nil), f.requests...)
}

type captureEvents struct {
	mu     sync.Mutex
	events []*gateway.PipelineEvent
}

func (c *captureEvents) Publish(_ context.Context, e *gateway.PipelineEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureEvents) Types() []gateway.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gateway.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeStorage struct{}

func (fakeStorage) Bucket() string { return "course-media" }

func (fakeStorage) PublicURL(key string) string { return "https://cdn.test/course-media/" + key }

type harness struct {
	store   *memory.Store
	compute *fakeCompute
	events  *captureEvents
	orch    Orchestrator
}

func testSettings() PipelineSettings {
	return PipelineSettings{
		BatchSize:        10,
		FailurePolicy:    vo.FailurePolicyTolerate,
		TranscodePrefix:  "hls",
		CaptionPrefix:    "captions",
		CaptionLanguages: []string{"en", "vi"},
		CallbackBaseURL:  "http://pipeline.test",
	}
}

func newHarness(t *testing.T, settings PipelineSettings, deduper gateway.CallbackDeduper) *harness {
	t.Helper()
	h := &harness{store: memory.NewStore(), compute: &fakeCompute{}, events: &captureEvents{}}
	h.orch = NewOrchestrator(OrchestratorDeps{
		PipelineDeps: PipelineDeps{
			Courses:  h.store.Courses(),
			Batches:  h.store.Batches(),
			Storage:  fakeStorage{},
			Events:   h.events,
			Settings: settings,
		},
		Compute: h.compute,
		Deduper: deduper,
	})
	return h
}

// seedProcessing 保存课程并置为processing, 与发布入口的顺序一致
func (h *harness) seedProcessing(t *testing.T, course *entity.Course) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Courses().Save(ctx, course))
	ok, err := h.store.Courses().CompareAndSetStatus(ctx, course.ID(), course.Status(), vo.CourseStatusProcessing)
	require.NoError(t, err)
	require.True(t, ok)
}

func (h *harness) success(t *testing.T, batchID, key string) *IngestResult {
	t.Helper()
	res, err := h.orch.Ingestor().Ingest(context.Background(), &ItemCallback{
		Kind:          vo.PipelineKindTranscode,
		CorrelationID: batchID,
		ItemKey:       key,
		Status:        vo.ItemOutcomeSuccess,
		PlayableURL:   "https://cdn.test/hls/" + key + "/index.m3u8",
	})
	require.NoError(t, err)
	return res
}

func (h *harness) batches(t *testing.T, courseID string, kind vo.PipelineKind) []*entity.Batch {
	t.Helper()
	out, err := h.store.Batches().ListByCourse(context.Background(), courseID, kind)
	require.NoError(t, err)
	return out
}
