package service

import (
	"media-pipeline-service/ddd/domain/entity"
)

// CollectTranscodeItems 有源文件但还没有播放地址的视频课时, 按章节再按课时顺序
func CollectTranscodeItems(course *entity.Course) []string {
	if course == nil {
		return nil
	}
	var keys []string
	seen := make(map[string]struct{})
	for _, l := range course.VideoLectures() {
		m := l.Media()
		if m == nil || !m.HasSource() || m.IsTranscoded() {
			continue
		}
		if _, ok := seen[m.Key()]; ok {
			continue
		}
		seen[m.Key()] = struct{}{}
		keys = append(keys, m.Key())
	}
	return keys
}

// CollectCaptionItems 宣传视频在前, 然后是视频课时; 没有字幕或只有默认语言字幕的条目
func CollectCaptionItems(course *entity.Course) []string {
	if course == nil {
		return nil
	}
	var keys []string
	seen := make(map[string]struct{})
	for _, m := range course.MediaItems() {
		if !m.HasSource() || !m.NeedsCaption(course.DefaultLanguage()) {
			continue
		}
		if _, ok := seen[m.Key()]; ok {
			continue
		}
		seen[m.Key()] = struct{}{}
		keys = append(keys, m.Key())
	}
	return keys
}
