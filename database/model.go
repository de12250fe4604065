package database

import (
	"time"

	"gorm.io/gorm"
)

// Rule is a persisted per-chat download rule: filters deciding which
// inbound files to fetch, plus the destination policy applied to the
// tasks it creates.
type Rule struct {
	gorm.Model
	ChatID    int64 `gorm:"index;not null"`
	ChatTitle string
	Mode      string `gorm:"not null;default:monitor"` // monitor or history
	// No default tag: gorm skips zero-valued fields that carry one on
	// insert, which would silently re-enable rules created disabled.
	Enabled bool

	// Comma-separated lowercase extensions; empty allows everything.
	IncludeExtensions string
	// Raw size-range string as entered ("0", "10", "10-100"), kept for
	// display; the parsed bounds below drive matching.
	SizeRange    string
	MinSizeBytes int64 `gorm:"default:0"`
	MaxSizeBytes int64 `gorm:"default:0"` // 0 means no upper bound

	MatchMode       string `gorm:"default:all"` // all, include or exclude
	IncludeKeywords string
	ExcludeKeywords string

	StartTime *time.Time
	EndTime   *time.Time

	SaveDir          string // empty falls back to the global default
	FilenameTemplate string // empty falls back to the global default

	AddDownloadSuffix bool
	MoveAfterComplete bool
	AutoCatchUp       bool
}

// DownloadTask is one tracked retrieval. Identity is the
// (chat, message, rule) triple; TaskID is the public handle used by
// the scheduler and the control operations.
type DownloadTask struct {
	gorm.Model
	TaskID string `gorm:"uniqueIndex;not null"`

	RuleID    *uint `gorm:"index;uniqueIndex:idx_chat_message_rule"` // nil for ad-hoc tasks
	ChatID    int64 `gorm:"not null;uniqueIndex:idx_chat_message_rule"`
	MessageID int   `gorm:"not null;uniqueIndex:idx_chat_message_rule"`
	ChatTitle string

	FileName     string // origin file name
	ResolvedName string // template-expanded, fixed at creation
	SaveDir      string // resolved at creation, never re-resolved
	FilePath     string // final path, set once placement completes

	Status    string  `gorm:"index;default:pending"`
	Progress  float64 `gorm:"default:0"` // percent, 0-100
	Speed     float64 `gorm:"default:0"` // bytes/sec
	TotalSize int64   `gorm:"default:0"` // 0 until known
	Error     string
	Priority  bool   `gorm:"default:false"`
	Source    string `gorm:"default:rule"` // rule or adhoc

	AddDownloadSuffix bool
	MoveAfterComplete bool
}

// ChatCursor records the highest message id already scanned per chat,
// so catch-up scans resume where they left off.
type ChatCursor struct {
	gorm.Model
	ChatID        int64 `gorm:"uniqueIndex;not null"`
	LastMessageID int
}

// ConfigItem is one runtime-mutable configuration entry (key/value).
type ConfigItem struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}
