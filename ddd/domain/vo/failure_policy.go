package vo

import (
	"fmt"
	"strings"
)

// FailurePolicy 决定运行中存在失败条目时课程能否发布
type FailurePolicy string

const (
	// FailurePolicyTolerate 失败条目不阻止发布
	FailurePolicyTolerate FailurePolicy = "tolerate"
	// FailurePolicyBlock 任一条目失败则课程回到draft
	FailurePolicyBlock FailurePolicy = "block"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tolerate":
		return FailurePolicyTolerate, nil
	case "block":
		return FailurePolicyBlock, nil
	}
	return "", fmt.Errorf("unknown item failure policy: %q", s)
}

// Allows 根据失败条目数判断是否允许发布
func (p FailurePolicy) Allows(failedItems int) bool {
	if p == FailurePolicyBlock {
		return failedItems == 0
	}
	return true
}
