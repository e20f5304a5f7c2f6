package cqe

import (
	"sort"
	"strings"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/errno"
)

// TranscodeResult 转码产物
type TranscodeResult struct {
	PlayableURL string `json:"playableUrl"`
	StorageKey  string `json:"storageKey"`
}

// TranscodeCallbackCmd 计算服务逐条目的转码回调
type TranscodeCallbackCmd struct {
	CorrelationID string           `json:"correlationId"`
	ItemKey       string           `json:"itemKey"`
	Status        string           `json:"status"`
	Result        *TranscodeResult `json:"result,omitempty"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`

	outcome vo.ItemOutcome
}

func (c *TranscodeCallbackCmd) Validate() error {
	outcome, err := validateCallback(c.CorrelationID, c.ItemKey, c.Status)
	if err != nil {
		return err
	}
	c.outcome = outcome
	return nil
}

func (c *TranscodeCallbackCmd) Outcome() vo.ItemOutcome { return c.outcome }

// CaptionResult 单语言字幕产物
type CaptionResult struct {
	StorageKey    string `json:"storageKey"`
	PublicURL     string `json:"publicUrl"`
	IsTranslation bool   `json:"isTranslation"`
}

// CaptionCallbackCmd 字幕回调, 一个条目可同时带回多个语言
type CaptionCallbackCmd struct {
	CorrelationID     string                   `json:"correlationId"`
	ItemKey           string                   `json:"itemKey"`
	Status            string                   `json:"status"`
	ResultsByLanguage map[string]CaptionResult `json:"resultsByLanguage,omitempty"`
	ErrorMessage      string                   `json:"errorMessage,omitempty"`

	outcome vo.ItemOutcome
}

func (c *CaptionCallbackCmd) Validate() error {
	outcome, err := validateCallback(c.CorrelationID, c.ItemKey, c.Status)
	if err != nil {
		return err
	}
	c.outcome = outcome
	return nil
}

func (c *CaptionCallbackCmd) Outcome() vo.ItemOutcome { return c.outcome }

// Captions 按语言排序, 丢弃没有语言或没有存储位置的结果
func (c *CaptionCallbackCmd) Captions() []vo.Caption {
	out := make([]vo.Caption, 0, len(c.ResultsByLanguage))
	for lang, r := range c.ResultsByLanguage {
		lang = vo.NormalizeLanguage(lang)
		if lang == "" || (r.StorageKey == "" && r.PublicURL == "") {
			continue
		}
		out = append(out, vo.Caption{
			Language:      lang,
			StorageKey:    r.StorageKey,
			PublicURL:     r.PublicURL,
			IsTranslation: r.IsTranslation,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

func validateCallback(correlationID, itemKey, status string) (vo.ItemOutcome, error) {
	if strings.TrimSpace(correlationID) == "" {
		return "", errno.ErrCorrelationIDRequired
	}
	if strings.TrimSpace(itemKey) == "" {
		return "", errno.ErrItemKeyRequired
	}
	outcome, err := vo.NewItemOutcomeFromString(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return "", errno.NewBizError(errno.ErrCallbackStatusInvalid, err)
	}
	return outcome, nil
}
