package rulemode

import "fmt"

// Mode selects which message stream a rule evaluates. Monitor rules see
// only new inbound messages; history rules additionally backfill from
// the chat's past messages.
type Mode string

const (
	Monitor Mode = "monitor"
	History Mode = "history"
)

func (m Mode) String() string {
	return string(m)
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Monitor, History:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown rule mode: %s", s)
}
