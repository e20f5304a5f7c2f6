package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
)

func TestCollectTranscodeItemsOrderAndFilter(t *testing.T) {
	course := entity.NewCourse("c1", validAttributes())

	second := entity.NewSection("s2", "Advanced", 2)
	l3 := entity.NewLecture("l3", "Tuning", vo.LectureTypeVideo, 2)
	l3.AttachMedia("videos/c1/tuning.mp4")
	l4 := entity.NewLecture("l4", "Tracing", vo.LectureTypeVideo, 1)
	l4.AttachMedia("videos/c1/tracing.mp4")
	second.AddLecture(l3)
	second.AddLecture(l4)

	first := entity.NewSection("s1", "Basics", 1)
	done := entity.NewLecture("l1", "Hello", vo.LectureTypeVideo, 1)
	done.AttachMedia("videos/c1/hello.mp4").SetPlayableURL("https://cdn.test/hls/hello/index.m3u8")
	pending := entity.NewLecture("l2", "Setup", vo.LectureTypeVideo, 2)
	pending.AttachMedia("videos/c1/setup.mp4")
	first.AddLecture(pending)
	first.AddLecture(done)
	first.AddLecture(entity.NewLecture("l5", "Quiz", vo.LectureTypeQuiz, 3))
	first.AddLecture(entity.NewLecture("l6", "No upload yet", vo.LectureTypeVideo, 4))

	// 章节乱序加入, 收集结果仍按章节再按课时顺序
	course.AddSection(second)
	course.AddSection(first)
	course.SetPromoVideo("videos/c1/promo.mp4")

	assert.Equal(t, []string{
		"videos/c1/setup.mp4",
		"videos/c1/tracing.mp4",
		"videos/c1/tuning.mp4",
	}, CollectTranscodeItems(course))
}

func TestCollectTranscodeItemsNilCourse(t *testing.T) {
	assert.Empty(t, CollectTranscodeItems(nil))
	assert.Empty(t, CollectCaptionItems(nil))
}

func TestCollectCaptionItems(t *testing.T) {
	course := newCourse("c1", 4)
	course.SetPromoVideo("videos/c1/promo.mp4")

	lectures := course.VideoLectures()
	// 只有默认语言字幕, 仍需翻译
	lectures[0].Media().MergeCaptions([]vo.Caption{{Language: "EN", StorageKey: "captions/c1/1/en.vtt"}})
	// 已有非默认语言字幕
	lectures[1].Media().MergeCaptions([]vo.Caption{{Language: "vi", StorageKey: "captions/c1/2/vi.vtt"}})
	// 多语言字幕已齐
	lectures[2].Media().MergeCaptions([]vo.Caption{
		{Language: "en", StorageKey: "captions/c1/3/en.vtt"},
		{Language: "vi", StorageKey: "captions/c1/3/vi.vtt"},
	})

	assert.Equal(t, []string{
		"videos/c1/promo.mp4",
		videoKey("c1", 1),
		videoKey("c1", 4),
	}, CollectCaptionItems(course))
}

func TestCollectCaptionItemsIgnoresTranscodeState(t *testing.T) {
	course := newCourse("c1", 2)
	course.VideoLectures()[0].Media().SetPlayableURL("https://cdn.test/hls/1/index.m3u8")

	assert.Equal(t, []string{videoKey("c1", 1), videoKey("c1", 2)}, CollectCaptionItems(course))
}
