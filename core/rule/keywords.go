package rule

import (
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/SuperrNaruto/chatdl/pkg/enums/matchmode"
)

// KeywordFilter is the tagged variant of a rule's keyword condition:
// exactly one of the match modes is active, carrying its own keyword
// list. The zero value (mode "") behaves like All.
type KeywordFilter struct {
	Mode     matchmode.Mode
	Keywords []string
}

// NewKeywordFilter builds the filter for a rule's match mode, picking
// the keyword list that mode needs. Lists are comma-separated;
// whitespace around entries and empty entries are dropped.
func NewKeywordFilter(mode matchmode.Mode, includeKeywords, excludeKeywords string) KeywordFilter {
	switch mode {
	case matchmode.Include:
		return KeywordFilter{Mode: mode, Keywords: splitKeywords(includeKeywords)}
	case matchmode.Exclude:
		return KeywordFilter{Mode: mode, Keywords: splitKeywords(excludeKeywords)}
	default:
		return KeywordFilter{Mode: matchmode.All}
	}
}

// Match reports whether text passes the filter. Matching is
// case-insensitive substring containment.
func (f KeywordFilter) Match(text string) bool {
	switch f.Mode {
	case matchmode.Include:
		if len(f.Keywords) == 0 {
			return true
		}
		lower := strings.ToLower(text)
		return slice.Some(f.Keywords, func(_ int, kw string) bool {
			return strings.Contains(lower, kw)
		})
	case matchmode.Exclude:
		lower := strings.ToLower(text)
		return !slice.Some(f.Keywords, func(_ int, kw string) bool {
			return strings.Contains(lower, kw)
		})
	default:
		return true
	}
}

func splitKeywords(s string) []string {
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
