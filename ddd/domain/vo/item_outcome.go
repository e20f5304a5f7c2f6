package vo

import "fmt"

// ItemOutcome 单个条目的处理结果
type ItemOutcome string

const (
	ItemOutcomeSuccess ItemOutcome = "success"
	ItemOutcomeError   ItemOutcome = "error"
)

func NewItemOutcomeFromString(s string) (ItemOutcome, error) {
	switch ItemOutcome(s) {
	case ItemOutcomeSuccess, ItemOutcomeError:
		return ItemOutcome(s), nil
	}
	return "", fmt.Errorf("invalid item outcome: %q", s)
}

func (o ItemOutcome) String() string {
	return string(o)
}
