package entity

import (
	"sort"
	"time"

	"media-pipeline-service/ddd/domain/vo"
)

// CourseAttributes 发布校验所需的课程元数据
type CourseAttributes struct {
	Title            string
	Description      string // 可能包含HTML
	Category         string
	Level            string
	IsFree           bool
	Price            float64
	LearningOutcomes []string
	Requirements     []string
	IntendedLearners []string
	DefaultLanguage  string
}

// Course 课程聚合根
type Course struct {
	id         string
	attrs      CourseAttributes
	status     vo.CourseStatus
	promoVideo *MediaItem
	sections   []*Section
	createdAt  time.Time
	updatedAt  time.Time
}

// NewCourse 创建草稿课程
func NewCourse(id string, attrs CourseAttributes) *Course {
	now := time.Now()
	return &Course{
		id:        id,
		attrs:     attrs,
		status:    vo.CourseStatusDraft,
		createdAt: now,
		updatedAt: now,
	}
}

// NewCourseWithDetails 从持久化数据重建课程
func NewCourseWithDetails(
	id string,
	attrs CourseAttributes,
	status vo.CourseStatus,
	promoVideo *MediaItem,
	sections []*Section,
	createdAt time.Time,
	updatedAt time.Time,
) *Course {
	c := &Course{
		id:         id,
		attrs:      attrs,
		status:     status,
		promoVideo: promoVideo,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
	for _, s := range sections {
		c.AddSection(s)
	}
	return c
}

func (c *Course) ID() string                   { return c.id }
func (c *Course) Attributes() CourseAttributes { return c.attrs }
func (c *Course) Title() string                { return c.attrs.Title }
func (c *Course) DefaultLanguage() string      { return c.attrs.DefaultLanguage }
func (c *Course) Status() vo.CourseStatus      { return c.status }
func (c *Course) PromoVideo() *MediaItem       { return c.promoVideo }
func (c *Course) CreatedAt() time.Time         { return c.createdAt }
func (c *Course) UpdatedAt() time.Time         { return c.updatedAt }

// Sections 按position排序
func (c *Course) Sections() []*Section { return append([]*Section(nil), c.sections...) }

func (c *Course) SetAttributes(attrs CourseAttributes) {
	c.attrs = attrs
	c.updatedAt = time.Now()
}

// SetPromoVideo 设置宣传视频, key为空时移除
func (c *Course) SetPromoVideo(key string) {
	if key == "" {
		c.promoVideo = nil
		return
	}
	c.promoVideo = NewMediaItem(key, vo.MediaOwnerCourse, c.id)
}

func (c *Course) AddSection(s *Section) {
	if s == nil {
		return
	}
	c.sections = append(c.sections, s)
	sort.SliceStable(c.sections, func(i, j int) bool {
		return c.sections[i].position < c.sections[j].position
	})
}

// TransitionTo 状态流转
func (c *Course) TransitionTo(target vo.CourseStatus) error {
	if !c.status.CanTransitionTo(target) {
		return NewDomainError("cannot move course from " + c.status.String() + " to " + target.String())
	}
	c.status = target
	c.updatedAt = time.Now()
	return nil
}

// VideoLectures 按章节顺序再按课时顺序返回所有视频课时
func (c *Course) VideoLectures() []*Lecture {
	var out []*Lecture
	for _, s := range c.sections {
		for _, l := range s.lectures {
			if l.lectureType == vo.LectureTypeVideo {
				out = append(out, l)
			}
		}
	}
	return out
}

// MediaItems 宣传视频在前, 然后是视频课时的媒体
func (c *Course) MediaItems() []*MediaItem {
	var out []*MediaItem
	if c.promoVideo != nil {
		out = append(out, c.promoVideo)
	}
	for _, l := range c.VideoLectures() {
		if l.media != nil {
			out = append(out, l.media)
		}
	}
	return out
}

// FindMediaItem 按key查找媒体条目
func (c *Course) FindMediaItem(key string) *MediaItem {
	if key == "" {
		return nil
	}
	for _, m := range c.MediaItems() {
		if m.key == key {
			return m
		}
	}
	return nil
}

// CarryOver 重新导入时保留已存储课程的状态, 创建时间以及同key媒体的转码与字幕结果
func (c *Course) CarryOver(stored *Course) {
	if stored == nil {
		return
	}
	c.status = stored.status
	c.createdAt = stored.createdAt
	for _, m := range c.MediaItems() {
		if prev := stored.FindMediaItem(m.key); prev != nil {
			m.carryFrom(prev)
		}
	}
}

func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	attrs := c.attrs
	attrs.LearningOutcomes = append([]string(nil), c.attrs.LearningOutcomes...)
	attrs.Requirements = append([]string(nil), c.attrs.Requirements...)
	attrs.IntendedLearners = append([]string(nil), c.attrs.IntendedLearners...)
	sections := make([]*Section, 0, len(c.sections))
	for _, s := range c.sections {
		sections = append(sections, s.clone())
	}
	return NewCourseWithDetails(c.id, attrs, c.status, c.promoVideo.Clone(), sections, c.createdAt, c.updatedAt)
}
