package service

import (
	"errors"

	"media-pipeline-service/ddd/domain/vo"
)

// ErrKindMismatch 回调类型与批次类型不一致
var ErrKindMismatch = errors.New("callback kind does not match batch kind")

// ItemCallback 两种回调格式统一后的条目结果
type ItemCallback struct {
	Kind          vo.PipelineKind
	CorrelationID string
	ItemKey       string
	Status        vo.ItemOutcome
	// 转码结果, 只给StorageKey时由存储网关推导播放地址
	PlayableURL string
	StorageKey  string
	// 字幕结果
	Captions     []vo.Caption
	ErrorMessage string
}
