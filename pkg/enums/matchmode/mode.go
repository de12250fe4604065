package matchmode

import "fmt"

// Mode selects how a rule's keyword lists are interpreted.
type Mode string

const (
	// All accepts every message regardless of keywords.
	All Mode = "all"
	// Include accepts a message only if it contains at least one keyword.
	Include Mode = "include"
	// Exclude accepts a message only if it contains none of the keywords.
	Exclude Mode = "exclude"
)

func (m Mode) String() string {
	return string(m)
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case All, Include, Exclude:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown match mode: %s", s)
}
