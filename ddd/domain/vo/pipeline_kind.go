package vo

import (
	"fmt"
	"strings"
)

// PipelineKind 流水线类型
type PipelineKind string

const (
	PipelineKindTranscode PipelineKind = "transcode"
	PipelineKindCaption   PipelineKind = "caption"
)

// ParsePipelineKind 解析流水线类型, 兼容 captions 复数写法
func ParsePipelineKind(s string) (PipelineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transcode":
		return PipelineKindTranscode, nil
	case "caption", "captions":
		return PipelineKindCaption, nil
	}
	return "", fmt.Errorf("unknown pipeline kind: %q", s)
}

func (k PipelineKind) String() string {
	return string(k)
}

func (k PipelineKind) IsValid() bool {
	return k == PipelineKindTranscode || k == PipelineKindCaption
}
