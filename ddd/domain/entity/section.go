package entity

import (
	"sort"

	"media-pipeline-service/ddd/domain/vo"
)

// Section 课程章节
type Section struct {
	id       string
	title    string
	position int
	lectures []*Lecture
}

func NewSection(id, title string, position int) *Section {
	return &Section{id: id, title: title, position: position}
}

func (s *Section) ID() string    { return s.id }
func (s *Section) Title() string { return s.title }
func (s *Section) Position() int { return s.position }
func (s *Section) Lectures() []*Lecture {
	return append([]*Lecture(nil), s.lectures...)
}

func (s *Section) AddLecture(l *Lecture) {
	if l == nil {
		return
	}
	s.lectures = append(s.lectures, l)
	sort.SliceStable(s.lectures, func(i, j int) bool {
		return s.lectures[i].position < s.lectures[j].position
	})
}

func (s *Section) clone() *Section {
	out := NewSection(s.id, s.title, s.position)
	for _, l := range s.lectures {
		out.lectures = append(out.lectures, &Lecture{
			id:          l.id,
			title:       l.title,
			lectureType: l.lectureType,
			position:    l.position,
			media:       l.media.Clone(),
		})
	}
	return out
}

// Lecture 课时
type Lecture struct {
	id          string
	title       string
	lectureType vo.LectureType
	position    int
	media       *MediaItem
}

func NewLecture(id, title string, lectureType vo.LectureType, position int) *Lecture {
	return &Lecture{id: id, title: title, lectureType: lectureType, position: position}
}

func (l *Lecture) ID() string           { return l.id }
func (l *Lecture) Title() string        { return l.title }
func (l *Lecture) Type() vo.LectureType { return l.lectureType }
func (l *Lecture) Position() int        { return l.position }
func (l *Lecture) Media() *MediaItem    { return l.media }
func (l *Lecture) IsVideo() bool        { return l.lectureType == vo.LectureTypeVideo }

// AttachMedia 视频课时绑定源对象
func (l *Lecture) AttachMedia(key string) *MediaItem {
	l.media = NewMediaItem(key, vo.MediaOwnerLecture, l.id)
	return l.media
}

// SetMedia 从持久化数据恢复媒体
func (l *Lecture) SetMedia(m *MediaItem) { l.media = m }
