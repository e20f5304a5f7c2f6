package app

import (
	"context"
	"time"

	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/ddd/application/dto"
	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/service"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/logger"
)

// ImportCourse 课程已存在时保留状态, 同key媒体保留已有的转码与字幕结果, 合并在仓储的原子区域内完成
func (a *publishAppImpl) ImportCourse(ctx context.Context, cmd *cqe.ImportCourseCmd) (*dto.CourseDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	course, err := a.courses.Import(ctx, buildCourse(cmd))
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	out := &dto.CourseDTO{
		CourseID:       course.ID(),
		Status:         course.Status().String(),
		Sections:       len(course.Sections()),
		VideoLectures:  len(course.VideoLectures()),
		PendingVideos:  len(service.CollectTranscodeItems(course)),
		PendingCaption: len(service.CollectCaptionItems(course)),
	}
	logger.Infof("Course imported course_id=%s status=%s sections=%d pending_videos=%d",
		out.CourseID, out.Status, out.Sections, out.PendingVideos)
	return out, nil
}

func buildCourse(cmd *cqe.ImportCourseCmd) *entity.Course {
	attrs := entity.CourseAttributes{
		Title:            cmd.Title,
		Description:      cmd.Description,
		Category:         cmd.Category,
		Level:            cmd.Level,
		IsFree:           cmd.IsFree,
		Price:            cmd.Price,
		LearningOutcomes: cmd.LearningOutcomes,
		Requirements:     cmd.Requirements,
		IntendedLearners: cmd.IntendedLearners,
		DefaultLanguage:  vo.NormalizeLanguage(cmd.DefaultLanguage),
	}

	sections := make([]*entity.Section, 0, len(cmd.Sections))
	for _, s := range cmd.Sections {
		section := entity.NewSection(s.ID, s.Title, s.Position)
		for _, l := range s.Lectures {
			lectureType, _ := vo.NewLectureTypeFromString(l.Type)
			lecture := entity.NewLecture(l.ID, l.Title, lectureType, l.Position)
			if lectureType == vo.LectureTypeVideo && l.MediaKey != "" {
				lecture.SetMedia(entity.NewMediaItemWithDetails(l.MediaKey, vo.MediaOwnerLecture, l.ID, l.PlayableURL, nil))
			}
			section.AddLecture(lecture)
		}
		sections = append(sections, section)
	}

	var promo *entity.MediaItem
	if cmd.PromoVideoKey != "" {
		promo = entity.NewMediaItem(cmd.PromoVideoKey, vo.MediaOwnerCourse, cmd.CourseID)
	}
	now := time.Now()
	return entity.NewCourseWithDetails(cmd.CourseID, attrs, vo.CourseStatusDraft, promo, sections, now, now)
}
