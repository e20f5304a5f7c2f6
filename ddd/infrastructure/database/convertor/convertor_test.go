package convertor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
)

func sampleCourse() *entity.Course {
	c := entity.NewCourse("c1", entity.CourseAttributes{
		Title:            "Go",
		LearningOutcomes: []string{"a", "b"},
		DefaultLanguage:  "en",
	})
	c.SetPromoVideo("videos/promo.mp4")
	s := entity.NewSection("s1", "Basics", 1)
	video := entity.NewLecture("l1", "Intro", vo.LectureTypeVideo, 1)
	m := video.AttachMedia("videos/intro.mp4")
	m.SetPlayableURL("https://cdn.test/intro.m3u8")
	m.MergeCaptions([]vo.Caption{{Language: "en", StorageKey: "captions/intro/en.vtt"}})
	s.AddLecture(video)
	// 未上传视频的课时不产生媒体行
	s.AddLecture(entity.NewLecture("l2", "Pending upload", vo.LectureTypeVideo, 2))
	s.AddLecture(entity.NewLecture("l3", "Notes", vo.LectureTypeArticle, 3))
	c.AddSection(s)
	return c
}

func TestCourseRowsRoundTrip(t *testing.T) {
	cv := NewCourseConvertor()
	rows := cv.ToRows(sampleCourse())

	require.NotNil(t, rows.Course)
	assert.Equal(t, "draft", rows.Course.Status)
	assert.Len(t, rows.Sections, 1)
	assert.Len(t, rows.Lectures, 3)
	require.Len(t, rows.Items, 2)
	assert.Equal(t, "course", rows.Items[0].OwnerType)
	assert.Equal(t, "lecture", rows.Items[1].OwnerType)

	back := cv.ToEntity(rows)
	require.NotNil(t, back)
	assert.Equal(t, "c1", back.ID())
	assert.Equal(t, []string{"a", "b"}, back.Attributes().LearningOutcomes)
	require.NotNil(t, back.PromoVideo())
	assert.Equal(t, "videos/promo.mp4", back.PromoVideo().Key())

	intro := back.FindMediaItem("videos/intro.mp4")
	require.NotNil(t, intro)
	assert.Equal(t, "https://cdn.test/intro.m3u8", intro.PlayableURL())
	assert.True(t, intro.HasCaption("en"))
	assert.Len(t, back.Sections()[0].Lectures(), 3)
}

func TestCourseToEntityUnknownStatusFallsBackToDraft(t *testing.T) {
	cv := NewCourseConvertor()
	rows := cv.ToRows(sampleCourse())
	rows.Course.Status = "archived"
	assert.Equal(t, vo.CourseStatusDraft, cv.ToEntity(rows).Status())
	assert.Nil(t, cv.ToEntity(nil))
}

func TestBatchRowRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	b := entity.NewBatch("c1", vo.PipelineKindCaption, 2, []string{"a", "b"}, now)
	require.NoError(t, b.Claim(now))
	require.NoError(t, b.MarkLaunched(now))

	cv := NewBatchConvertor()
	row := cv.ToPO(7, b)
	assert.Equal(t, uint64(7), row.Id)
	assert.Equal(t, "processing", row.Status)
	assert.Equal(t, b.ID(), row.BatchUUID)

	back := cv.ToEntity(row)
	assert.Equal(t, b.ID(), back.ID())
	assert.Equal(t, vo.PipelineKindCaption, back.Kind())
	assert.Equal(t, []string{"a", "b"}, back.Items())
	assert.Equal(t, vo.BatchStatusProcessing, back.Status())
	require.NotNil(t, back.LaunchedAt())
	assert.True(t, now.Equal(*back.LaunchedAt()))
	assert.Len(t, cv.ToEntities(nil), 0)
}
