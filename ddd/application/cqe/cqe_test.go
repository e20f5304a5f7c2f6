package cqe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/errno"
)

func errnoOf(err error) *errno.Errno {
	e, _ := errno.Decode(err)
	return e
}

func TestCallbackValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  TranscodeCallbackCmd
		want *errno.Errno
	}{
		{name: "ok", cmd: TranscodeCallbackCmd{CorrelationID: "b1", ItemKey: "k", Status: " Success "}},
		{name: "no correlation", cmd: TranscodeCallbackCmd{ItemKey: "k", Status: "success"}, want: errno.ErrCorrelationIDRequired},
		{name: "no item", cmd: TranscodeCallbackCmd{CorrelationID: "b1", Status: "error"}, want: errno.ErrItemKeyRequired},
		{name: "bad status", cmd: TranscodeCallbackCmd{CorrelationID: "b1", ItemKey: "k", Status: "running"}, want: errno.ErrCallbackStatusInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, vo.ItemOutcomeSuccess, tt.cmd.Outcome())
				return
			}
			assert.Equal(t, tt.want, errnoOf(err))
		})
	}
}

func TestCaptionCallbackCaptions(t *testing.T) {
	cmd := CaptionCallbackCmd{
		CorrelationID: "b1",
		ItemKey:       "videos/a.mp4",
		Status:        "success",
		ResultsByLanguage: map[string]CaptionResult{
			"VI":  {StorageKey: "captions/a/vi.vtt", IsTranslation: true},
			"en":  {PublicURL: "https://cdn.test/a/en.vtt"},
			"fr":  {},
			"   ": {StorageKey: "captions/a/blank.vtt"},
		},
	}
	require.NoError(t, cmd.Validate())
	captions := cmd.Captions()
	require.Len(t, captions, 2)
	assert.Equal(t, "en", captions[0].Language)
	assert.Equal(t, "vi", captions[1].Language)
	assert.True(t, captions[1].IsTranslation)
}

func TestPipelineStatusQuery(t *testing.T) {
	q := PipelineStatusQuery{CourseID: " c1 ", Kind: "captions"}
	require.NoError(t, q.Validate())
	assert.Equal(t, "c1", q.CourseID)
	assert.Equal(t, vo.PipelineKindCaption, q.PipelineKind())

	bad := PipelineStatusQuery{CourseID: "c1", Kind: "audio"}
	assert.Equal(t, errno.ErrPipelineKindInvalid, errnoOf(bad.Validate()))
}

func TestAbandonBatchCmdDefaultsReason(t *testing.T) {
	cmd := AbandonBatchCmd{BatchID: "b1"}
	require.NoError(t, cmd.Validate())
	assert.Equal(t, "abandoned by operator", cmd.Reason)

	assert.Equal(t, errno.ErrCorrelationIDRequired, errnoOf((&AbandonBatchCmd{}).Validate()))
}

func TestImportCourseValidate(t *testing.T) {
	cmd := ImportCourseCmd{
		CourseID: "c1",
		Sections: []SectionImport{{ID: "s1", Lectures: []LectureImport{{ID: "l1", Type: "video"}}}},
	}
	require.NoError(t, cmd.Validate())

	cmd.Sections[0].Lectures[0].Type = "slides"
	assert.Equal(t, errno.ErrInvalidParam, errnoOf(cmd.Validate()))

	cmd.Sections[0].Lectures[0] = LectureImport{Type: "video"}
	assert.Equal(t, errno.ErrInvalidParam, errnoOf(cmd.Validate()))

	cmd.Sections[0].Lectures = []LectureImport{
		{ID: "l1", Type: "video", MediaKey: "videos/a.mp4"},
		{ID: "l2", Type: "video", MediaKey: " videos/a.mp4 "},
	}
	err := cmd.Validate()
	assert.Equal(t, errno.ErrInvalidParam, errnoOf(err))
	assert.Contains(t, err.Error(), "sections[0].lectures[1].mediaKey")

	cmd.Sections[0].Lectures[1].MediaKey = "videos/b.mp4"
	cmd.PromoVideoKey = "videos/b.mp4"
	assert.Equal(t, errno.ErrInvalidParam, errnoOf(cmd.Validate()))

	// 非视频课时的key不参与校验
	cmd.PromoVideoKey = ""
	cmd.Sections[0].Lectures[1] = LectureImport{ID: "l2", Type: "article", MediaKey: "videos/a.mp4"}
	assert.NoError(t, cmd.Validate())

	assert.Equal(t, errno.ErrCourseIDRequired, errnoOf((&ImportCourseCmd{}).Validate()))
	assert.Equal(t, errno.ErrCourseIDRequired, errnoOf((&PublishCourseCmd{CourseID: " "}).Validate()))
}
