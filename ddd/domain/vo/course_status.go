package vo

import "fmt"

// CourseStatus 课程生命周期状态
type CourseStatus string

const (
	CourseStatusDraft      CourseStatus = "draft"
	CourseStatusProcessing CourseStatus = "processing"
	CourseStatusPublished  CourseStatus = "published"
)

func NewCourseStatusFromString(s string) (CourseStatus, error) {
	status := CourseStatus(s)
	switch status {
	case CourseStatusDraft, CourseStatusProcessing, CourseStatusPublished:
		return status, nil
	}
	return "", fmt.Errorf("invalid course status: %q", s)
}

func (s CourseStatus) String() string {
	return string(s)
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s CourseStatus) CanTransitionTo(target CourseStatus) bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished:
		// 重新发布: 有待处理媒体时进入processing, 没有时直接published
		return target == CourseStatusProcessing || target == CourseStatusPublished
	case CourseStatusProcessing:
		// 重新发布时processing可以原地重启
		return target == CourseStatusPublished || target == CourseStatusDraft || target == CourseStatusProcessing
	default:
		return false
	}
}
