package service

import (
	"strings"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/config"
)

// PipelineSettings 编排参数
type PipelineSettings struct {
	BatchSize        int
	FailurePolicy    vo.FailurePolicy
	TranscodePrefix  string
	CaptionPrefix    string
	CaptionLanguages []string
	// CallbackBaseURL 计算服务回调本服务的外部地址
	CallbackBaseURL string
}

// SettingsFromConfig 从配置构造, 非法策略退回tolerate
func SettingsFromConfig(cfg *config.Config) PipelineSettings {
	if cfg == nil {
		cfg = config.Default()
	}
	policy, err := vo.ParseFailurePolicy(cfg.Pipeline.ItemFailurePolicy)
	if err != nil {
		policy = vo.FailurePolicyTolerate
	}
	langs := make([]string, 0, len(cfg.Pipeline.CaptionLanguages))
	for _, l := range cfg.Pipeline.CaptionLanguages {
		if l = vo.NormalizeLanguage(l); l != "" {
			langs = append(langs, l)
		}
	}
	return PipelineSettings{
		BatchSize:        cfg.Pipeline.BatchSize,
		FailurePolicy:    policy,
		TranscodePrefix:  strings.Trim(cfg.Pipeline.TranscodePrefix, "/"),
		CaptionPrefix:    strings.Trim(cfg.Pipeline.CaptionPrefix, "/"),
		CaptionLanguages: langs,
		CallbackBaseURL:  strings.TrimRight(cfg.Webhook.PublicBaseURL, "/"),
	}
}

// CallbackURL 对应类型的回调地址
func (s PipelineSettings) CallbackURL(kind vo.PipelineKind) string {
	path := "/internal/v1/webhooks/transcode"
	if kind == vo.PipelineKindCaption {
		path = "/internal/v1/webhooks/captions"
	}
	return s.CallbackBaseURL + path
}
