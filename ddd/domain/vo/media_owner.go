package vo

// MediaOwner 媒体条目归属
type MediaOwner string

const (
	// MediaOwnerLecture 课时视频
	MediaOwnerLecture MediaOwner = "lecture"
	// MediaOwnerCourse 课程宣传视频
	MediaOwnerCourse MediaOwner = "course"
)

func (o MediaOwner) String() string {
	return string(o)
}
