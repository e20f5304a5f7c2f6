package vo

import (
	"fmt"
	"strings"
)

// LectureType 课时内容类型
type LectureType string

const (
	LectureTypeVideo    LectureType = "video"
	LectureTypeArticle  LectureType = "article"
	LectureTypeQuiz     LectureType = "quiz"
	LectureTypeResource LectureType = "resource"
)

// NewLectureTypeFromString 空值按video处理
func NewLectureTypeFromString(s string) (LectureType, error) {
	if s == "" {
		return LectureTypeVideo, nil
	}
	t := LectureType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid lecture type: %q", s)
	}
	return t, nil
}

func (t LectureType) IsValid() bool {
	switch t {
	case LectureTypeVideo, LectureTypeArticle, LectureTypeQuiz, LectureTypeResource:
		return true
	}
	return false
}

func (t LectureType) String() string {
	return string(t)
}
