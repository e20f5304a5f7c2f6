package vo

import "strings"

// Caption 单语言字幕
type Caption struct {
	Language      string `json:"language"`
	StorageKey    string `json:"storageKey"`
	PublicURL     string `json:"publicUrl"`
	IsTranslation bool   `json:"isTranslation"`
}

// NormalizeLanguage 语言代码统一为小写
func NormalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
