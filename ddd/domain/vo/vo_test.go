package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePipelineKind(t *testing.T) {
	for in, want := range map[string]PipelineKind{
		"transcode": PipelineKindTranscode,
		"Caption":   PipelineKindCaption,
		"captions":  PipelineKindCaption,
	} {
		got, err := ParsePipelineKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParsePipelineKind("thumbnail")
	assert.Error(t, err)
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailurePolicyTolerate, p)
	assert.True(t, p.Allows(5))

	p, err = ParseFailurePolicy(" BLOCK ")
	require.NoError(t, err)
	assert.True(t, p.Allows(0))
	assert.False(t, p.Allows(1))

	_, err = ParseFailurePolicy("retry")
	assert.Error(t, err)
}

func TestBatchStatusTransitions(t *testing.T) {
	assert.True(t, BatchStatusPending.CanTransitionTo(BatchStatusProcessing))
	assert.True(t, BatchStatusPending.CanTransitionTo(BatchStatusFailed))
	assert.True(t, BatchStatusProcessing.CanTransitionTo(BatchStatusPending))
	assert.True(t, BatchStatusProcessing.CanTransitionTo(BatchStatusCompleted))
	assert.False(t, BatchStatusCompleted.CanTransitionTo(BatchStatusProcessing))
	assert.False(t, BatchStatusFailed.CanTransitionTo(BatchStatusPending))
	assert.True(t, BatchStatusFailed.IsFinalStatus())

	_, err := NewBatchStatusFromString("running")
	assert.Error(t, err)
}

func TestCourseStatusTransitions(t *testing.T) {
	assert.True(t, CourseStatusDraft.CanTransitionTo(CourseStatusProcessing))
	assert.True(t, CourseStatusDraft.CanTransitionTo(CourseStatusPublished))
	assert.True(t, CourseStatusPublished.CanTransitionTo(CourseStatusProcessing))
	assert.True(t, CourseStatusProcessing.CanTransitionTo(CourseStatusDraft))
	assert.False(t, CourseStatusPublished.CanTransitionTo(CourseStatusDraft))
	assert.False(t, CourseStatusDraft.CanTransitionTo(CourseStatusDraft))
}

func TestNewLectureTypeFromString(t *testing.T) {
	lt, err := NewLectureTypeFromString("")
	require.NoError(t, err)
	assert.Equal(t, LectureTypeVideo, lt)

	lt, err = NewLectureTypeFromString("Quiz")
	require.NoError(t, err)
	assert.Equal(t, LectureTypeQuiz, lt)

	_, err = NewLectureTypeFromString("podcast")
	assert.Error(t, err)
}

func TestNewItemOutcomeFromString(t *testing.T) {
	o, err := NewItemOutcomeFromString("error")
	require.NoError(t, err)
	assert.Equal(t, ItemOutcomeError, o)
	_, err = NewItemOutcomeFromString("SUCCESS")
	assert.Error(t, err)
}
