package service

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"media-pipeline-service/ddd/domain/entity"
)

const minLearningOutcomes = 4

// ValidateForPublish 发布前校验, 一次返回全部问题, 无副作用
func ValidateForPublish(course *entity.Course) []string {
	if course == nil {
		return []string{"course is required"}
	}
	attrs := course.Attributes()
	var problems []string

	if strings.TrimSpace(attrs.Title) == "" {
		problems = append(problems, "title is required")
	}
	if StripMarkup(attrs.Description) == "" {
		problems = append(problems, "description is required")
	}
	if strings.TrimSpace(attrs.Level) == "" {
		problems = append(problems, "level is required")
	}
	if strings.TrimSpace(attrs.Category) == "" {
		problems = append(problems, "category is required")
	}
	if n := countNonBlank(attrs.LearningOutcomes); n < minLearningOutcomes {
		problems = append(problems, fmt.Sprintf("at least %d learning outcomes are required, got %d", minLearningOutcomes, n))
	}
	if countNonBlank(attrs.Requirements) == 0 {
		problems = append(problems, "at least one requirement is required")
	}
	if countNonBlank(attrs.IntendedLearners) == 0 {
		problems = append(problems, "at least one intended learner is required")
	}

	sections := course.Sections()
	if len(sections) == 0 {
		problems = append(problems, "at least one section is required")
	}
	for _, s := range sections {
		if len(s.Lectures()) == 0 {
			problems = append(problems, fmt.Sprintf("section %q has no lectures", s.Title()))
		}
	}

	hasVideo := false
	for _, l := range course.VideoLectures() {
		if l.Media() != nil && l.Media().HasSource() {
			hasVideo = true
			break
		}
	}
	if !hasVideo {
		problems = append(problems, "at least one video lecture with an uploaded video is required")
	}

	if !attrs.IsFree && attrs.Price <= 0 {
		problems = append(problems, "paid course must have a price greater than 0")
	}
	return problems
}

// StripMarkup 去除HTML标签并解码实体, 返回去除首尾空白的纯文本
func StripMarkup(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// 非法输入时退回原文
				return strings.TrimSpace(html.UnescapeString(s))
			}
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

func countNonBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
