package po

import (
	"gorm.io/datatypes"

	"media-pipeline-service/ddd/domain/vo"
)

// Course 课程持久化对象
type Course struct {
	BaseModel
	CourseID         string                      `gorm:"column:course_id;type:varchar(64);uniqueIndex" json:"course_id"`
	Title            string                      `gorm:"column:title;type:varchar(255)" json:"title"`
	Description      string                      `gorm:"column:description;type:text" json:"description"`
	Category         string                      `gorm:"column:category;type:varchar(100)" json:"category"`
	Level            string                      `gorm:"column:level;type:varchar(50)" json:"level"`
	IsFree           bool                        `gorm:"column:is_free" json:"is_free"`
	Price            float64                     `gorm:"column:price" json:"price"`
	LearningOutcomes datatypes.JSONSlice[string] `gorm:"column:learning_outcomes" json:"learning_outcomes"`
	Requirements     datatypes.JSONSlice[string] `gorm:"column:requirements" json:"requirements"`
	IntendedLearners datatypes.JSONSlice[string] `gorm:"column:intended_learners" json:"intended_learners"`
	DefaultLanguage  string                      `gorm:"column:default_language;type:varchar(16)" json:"default_language"`
	Status           string                      `gorm:"column:status;type:varchar(20);index" json:"status"` // draft, processing, published
}

func (Course) TableName() string {
	return "courses"
}

// CourseSection 章节
type CourseSection struct {
	BaseModel
	SectionID string `gorm:"column:section_id;type:varchar(64);uniqueIndex" json:"section_id"`
	CourseID  string `gorm:"column:course_id;type:varchar(64);index" json:"course_id"`
	Title     string `gorm:"column:title;type:varchar(255)" json:"title"`
	Position  int    `gorm:"column:position" json:"position"`
}

func (CourseSection) TableName() string {
	return "course_sections"
}

// CourseLecture 课时
type CourseLecture struct {
	BaseModel
	LectureID string `gorm:"column:lecture_id;type:varchar(64);uniqueIndex" json:"lecture_id"`
	CourseID  string `gorm:"column:course_id;type:varchar(64);index" json:"course_id"`
	SectionID string `gorm:"column:section_id;type:varchar(64);index" json:"section_id"`
	Title     string `gorm:"column:title;type:varchar(255)" json:"title"`
	Type      string `gorm:"column:type;type:varchar(20)" json:"type"` // video, article, quiz, resource
	Position  int    `gorm:"column:position" json:"position"`
}

func (CourseLecture) TableName() string {
	return "course_lectures"
}

// MediaItem 媒体条目, (course_id, media_key)唯一
type MediaItem struct {
	BaseModel
	CourseID    string                          `gorm:"column:course_id;type:varchar(64);uniqueIndex:idx_media_course_key" json:"course_id"`
	MediaKey    string                          `gorm:"column:media_key;type:varchar(512);uniqueIndex:idx_media_course_key" json:"media_key"`
	OwnerType   string                          `gorm:"column:owner_type;type:varchar(20)" json:"owner_type"` // lecture, course
	OwnerID     string                          `gorm:"column:owner_id;type:varchar(64);index" json:"owner_id"`
	PlayableURL string                          `gorm:"column:playable_url;type:varchar(1024)" json:"playable_url"`
	Captions    datatypes.JSONSlice[vo.Caption] `gorm:"column:captions" json:"captions"`
}

func (MediaItem) TableName() string {
	return "media_items"
}
