package entity

import (
	"media-pipeline-service/ddd/domain/vo"
)

// MediaItem 课程中的单个媒体对象, key为存储中的源对象路径, 同一课程内唯一
type MediaItem struct {
	key         string
	owner       vo.MediaOwner
	ownerID     string
	playableURL string
	captions    []vo.Caption
}

func NewMediaItem(key string, owner vo.MediaOwner, ownerID string) *MediaItem {
	return &MediaItem{key: key, owner: owner, ownerID: ownerID}
}

// NewMediaItemWithDetails 从持久化数据重建
func NewMediaItemWithDetails(key string, owner vo.MediaOwner, ownerID, playableURL string, captions []vo.Caption) *MediaItem {
	m := &MediaItem{key: key, owner: owner, ownerID: ownerID, playableURL: playableURL}
	m.captions = append([]vo.Caption(nil), captions...)
	return m
}

func (m *MediaItem) Key() string             { return m.key }
func (m *MediaItem) Owner() vo.MediaOwner    { return m.owner }
func (m *MediaItem) OwnerID() string         { return m.ownerID }
func (m *MediaItem) PlayableURL() string     { return m.playableURL }
func (m *MediaItem) Captions() []vo.Caption  { return append([]vo.Caption(nil), m.captions...) }
func (m *MediaItem) HasSource() bool         { return m.key != "" }
func (m *MediaItem) IsTranscoded() bool      { return m.playableURL != "" }
func (m *MediaItem) SetPlayableURL(u string) { m.playableURL = u }

// HasCaption 是否已存在指定语言字幕
func (m *MediaItem) HasCaption(language string) bool {
	lang := vo.NormalizeLanguage(language)
	for _, c := range m.captions {
		if vo.NormalizeLanguage(c.Language) == lang {
			return true
		}
	}
	return false
}

// NeedsCaption 没有字幕, 或只有课程默认语言的字幕
func (m *MediaItem) NeedsCaption(defaultLanguage string) bool {
	switch len(m.captions) {
	case 0:
		return true
	case 1:
		return vo.NormalizeLanguage(m.captions[0].Language) == vo.NormalizeLanguage(defaultLanguage)
	default:
		return false
	}
}

// MergeCaptions 追加尚不存在的语言, 已有语言从不覆盖, 返回新增的语言
func (m *MediaItem) MergeCaptions(captions []vo.Caption) []string {
	var added []string
	for _, c := range captions {
		lang := vo.NormalizeLanguage(c.Language)
		if lang == "" || m.HasCaption(lang) {
			continue
		}
		c.Language = lang
		m.captions = append(m.captions, c)
		added = append(added, lang)
	}
	return added
}

// carryFrom 新快照没有的播放地址沿用prev, 字幕以prev为准再追加新语言
func (m *MediaItem) carryFrom(prev *MediaItem) {
	if m.playableURL == "" {
		m.playableURL = prev.playableURL
	}
	incoming := m.captions
	m.captions = append([]vo.Caption(nil), prev.captions...)
	m.MergeCaptions(incoming)
}

func (m *MediaItem) Clone() *MediaItem {
	if m == nil {
		return nil
	}
	return NewMediaItemWithDetails(m.key, m.owner, m.ownerID, m.playableURL, m.captions)
}
