package rule

import (
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/enums/matchmode"
	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// Defaults are the global fallbacks applied when a rule leaves its
// destination directory or filename template empty.
type Defaults struct {
	SaveDir          string
	FilenameTemplate string
}

// MatchResult is the outcome of a successful evaluation: the owning
// rule plus the destination policy resolved at match time. Tasks keep
// this resolution forever, even if the rule changes later.
type MatchResult struct {
	RuleID            uint
	SaveDir           string
	FilenameTemplate  string
	AddDownloadSuffix bool
	MoveAfterComplete bool
}

// Evaluate runs one inbound file message against the enabled rules of
// its chat. Rules must already be filtered to enabled=true and ordered
// ascending by creation; the first rule whose four filters all pass
// wins. Returns nil when no rule accepts the message.
//
// Pure function: no I/O, no side effects.
func Evaluate(msg tgfile.FileMessage, rules []database.Rule, defaults Defaults) *MatchResult {
	for i := range rules {
		if Accepts(&rules[i], msg) {
			return resolve(&rules[i], defaults)
		}
	}
	return nil
}

// Accepts reports whether a single rule accepts the message. All four
// filters (extension, size, keywords, time window) must pass.
func Accepts(r *database.Rule, msg tgfile.FileMessage) bool {
	if !matchExtension(r.IncludeExtensions, msg.Ext()) {
		return false
	}
	if !matchSize(r.MinSizeBytes, r.MaxSizeBytes, msg.Size) {
		return false
	}
	filter := NewKeywordFilter(matchmode.Mode(r.MatchMode), r.IncludeKeywords, r.ExcludeKeywords)
	if !filter.Match(msg.SearchText()) {
		return false
	}
	return matchTimeWindow(r, msg)
}

func resolve(r *database.Rule, defaults Defaults) *MatchResult {
	res := &MatchResult{
		RuleID:            r.ID,
		SaveDir:           r.SaveDir,
		FilenameTemplate:  r.FilenameTemplate,
		AddDownloadSuffix: r.AddDownloadSuffix,
		MoveAfterComplete: r.MoveAfterComplete,
	}
	if res.SaveDir == "" {
		res.SaveDir = defaults.SaveDir
	}
	if res.FilenameTemplate == "" {
		res.FilenameTemplate = defaults.FilenameTemplate
	}
	return res
}

// matchExtension passes when the allow-set is empty or contains the
// extension (case-insensitive, no dot).
func matchExtension(allowSet, ext string) bool {
	allowed := splitExtensions(allowSet)
	if len(allowed) == 0 {
		return true
	}
	if ext == "" {
		return false
	}
	return slice.Contain(allowed, ext)
}

func splitExtensions(s string) []string {
	parts := strings.Split(s, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		p = strings.TrimPrefix(p, ".")
		if p != "" {
			exts = append(exts, p)
		}
	}
	return exts
}

// matchTimeWindow passes when no window is set, otherwise requires the
// message timestamp in [start, end).
func matchTimeWindow(r *database.Rule, msg tgfile.FileMessage) bool {
	if r.StartTime != nil && msg.Date.Before(*r.StartTime) {
		return false
	}
	if r.EndTime != nil && !msg.Date.Before(*r.EndTime) {
		return false
	}
	return true
}
