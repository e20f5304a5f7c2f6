package convertor

import (
	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/po"
)

// CourseConvertor 课程树转换器
type CourseConvertor struct{}

func NewCourseConvertor() *CourseConvertor {
	return &CourseConvertor{}
}

// CourseRows 一个课程聚合对应的全部行
type CourseRows struct {
	Course   *po.Course
	Sections []*po.CourseSection
	Lectures []*po.CourseLecture
	Items    []*po.MediaItem
}

// ToEntity 行数据组装为课程聚合
func (c *CourseConvertor) ToEntity(rows *CourseRows) *entity.Course {
	if rows == nil || rows.Course == nil {
		return nil
	}
	p := rows.Course
	status, err := vo.NewCourseStatusFromString(p.Status)
	if err != nil {
		status = vo.CourseStatusDraft
	}

	media := make(map[string]*entity.MediaItem, len(rows.Items))
	var promo *entity.MediaItem
	for _, it := range rows.Items {
		m := c.MediaItemToEntity(it)
		if m.Owner() == vo.MediaOwnerCourse {
			promo = m
			continue
		}
		media[m.OwnerID()] = m
	}

	sectionByID := make(map[string]*entity.Section, len(rows.Sections))
	sections := make([]*entity.Section, 0, len(rows.Sections))
	for _, s := range rows.Sections {
		es := entity.NewSection(s.SectionID, s.Title, s.Position)
		sectionByID[s.SectionID] = es
		sections = append(sections, es)
	}
	for _, l := range rows.Lectures {
		es, ok := sectionByID[l.SectionID]
		if !ok {
			continue
		}
		el := entity.NewLecture(l.LectureID, l.Title, vo.LectureType(l.Type), l.Position)
		if m, ok := media[l.LectureID]; ok {
			el.SetMedia(m)
		}
		es.AddLecture(el)
	}

	attrs := entity.CourseAttributes{
		Title:            p.Title,
		Description:      p.Description,
		Category:         p.Category,
		Level:            p.Level,
		IsFree:           p.IsFree,
		Price:            p.Price,
		LearningOutcomes: []string(p.LearningOutcomes),
		Requirements:     []string(p.Requirements),
		IntendedLearners: []string(p.IntendedLearners),
		DefaultLanguage:  p.DefaultLanguage,
	}
	return entity.NewCourseWithDetails(p.CourseID, attrs, status, promo, sections, p.CreatedAt, p.UpdatedAt)
}

// ToRows 课程聚合拆分为行数据
func (c *CourseConvertor) ToRows(course *entity.Course) *CourseRows {
	attrs := course.Attributes()
	rows := &CourseRows{
		Course: &po.Course{
			BaseModel:        po.BaseModel{CreatedAt: course.CreatedAt(), UpdatedAt: course.UpdatedAt()},
			CourseID:         course.ID(),
			Title:            attrs.Title,
			Description:      attrs.Description,
			Category:         attrs.Category,
			Level:            attrs.Level,
			IsFree:           attrs.IsFree,
			Price:            attrs.Price,
			LearningOutcomes: attrs.LearningOutcomes,
			Requirements:     attrs.Requirements,
			IntendedLearners: attrs.IntendedLearners,
			DefaultLanguage:  attrs.DefaultLanguage,
			Status:           course.Status().String(),
		},
	}
	if promo := course.PromoVideo(); promo != nil {
		rows.Items = append(rows.Items, c.MediaItemToPO(course.ID(), promo))
	}
	for _, s := range course.Sections() {
		rows.Sections = append(rows.Sections, &po.CourseSection{
			SectionID: s.ID(),
			CourseID:  course.ID(),
			Title:     s.Title(),
			Position:  s.Position(),
		})
		for _, l := range s.Lectures() {
			rows.Lectures = append(rows.Lectures, &po.CourseLecture{
				LectureID: l.ID(),
				CourseID:  course.ID(),
				SectionID: s.ID(),
				Title:     l.Title(),
				Type:      l.Type().String(),
				Position:  l.Position(),
			})
			if m := l.Media(); m != nil && m.HasSource() {
				rows.Items = append(rows.Items, c.MediaItemToPO(course.ID(), m))
			}
		}
	}
	return rows
}

func (c *CourseConvertor) MediaItemToEntity(p *po.MediaItem) *entity.MediaItem {
	return entity.NewMediaItemWithDetails(p.MediaKey, vo.MediaOwner(p.OwnerType), p.OwnerID, p.PlayableURL, []vo.Caption(p.Captions))
}

func (c *CourseConvertor) MediaItemToPO(courseID string, m *entity.MediaItem) *po.MediaItem {
	return &po.MediaItem{
		CourseID:    courseID,
		MediaKey:    m.Key(),
		OwnerType:   m.Owner().String(),
		OwnerID:     m.OwnerID(),
		PlayableURL: m.PlayableURL(),
		Captions:    m.Captions(),
	}
}
