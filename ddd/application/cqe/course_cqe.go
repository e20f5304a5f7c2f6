package cqe

import (
	"fmt"
	"strings"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/errno"
)

// ImportCourseCmd 课程平台同步过来的课程快照
type ImportCourseCmd struct {
	CourseID         string          `uri:"course_id" json:"-"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Level            string          `json:"level"`
	IsFree           bool            `json:"isFree"`
	Price            float64         `json:"price"`
	LearningOutcomes []string        `json:"learningOutcomes"`
	Requirements     []string        `json:"requirements"`
	IntendedLearners []string        `json:"intendedLearners"`
	DefaultLanguage  string          `json:"defaultLanguage"`
	PromoVideoKey    string          `json:"promoVideoKey"`
	Sections         []SectionImport `json:"sections"`
}

type SectionImport struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Position int             `json:"position"`
	Lectures []LectureImport `json:"lectures"`
}

type LectureImport struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Position int    `json:"position"`
	// MediaKey 视频源对象key
	MediaKey    string `json:"mediaKey"`
	PlayableURL string `json:"playableUrl"`
}

func (c *ImportCourseCmd) Validate() error {
	c.CourseID = strings.TrimSpace(c.CourseID)
	if c.CourseID == "" {
		return errno.ErrCourseIDRequired
	}
	seen := make(map[string]string)
	if key := strings.TrimSpace(c.PromoVideoKey); key != "" {
		seen[key] = "promoVideoKey"
	}
	for i, s := range c.Sections {
		if strings.TrimSpace(s.ID) == "" {
			return errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("sections[%d].id is required", i))
		}
		for j, l := range s.Lectures {
			if strings.TrimSpace(l.ID) == "" {
				return errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("sections[%d].lectures[%d].id is required", i, j))
			}
			lectureType, err := vo.NewLectureTypeFromString(l.Type)
			if err != nil {
				return errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("sections[%d].lectures[%d]: %w", i, j, err))
			}
			key := strings.TrimSpace(l.MediaKey)
			if lectureType != vo.LectureTypeVideo || key == "" {
				continue
			}
			field := fmt.Sprintf("sections[%d].lectures[%d].mediaKey", i, j)
			if prev, dup := seen[key]; dup {
				return errno.NewBizError(errno.ErrInvalidParam, fmt.Errorf("%s duplicates %s: %s", field, prev, key))
			}
			seen[key] = field
		}
	}
	return nil
}
