package rule

import (
	"github.com/rs/xid"

	"github.com/SuperrNaruto/chatdl/core/placement"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// NewTask materializes a matched message into a download task row. The
// destination directory and file name are resolved here, once, and
// never re-resolved even if the rule changes later.
func NewTask(msg tgfile.FileMessage, res *MatchResult) *database.DownloadTask {
	id := xid.New().String()
	resolved := placement.ExpandTemplate(res.FilenameTemplate, placement.Identity{
		TaskID:    id,
		MessageID: msg.MessageID,
		ChatTitle: msg.ChatTitle,
		FileName:  msg.DisplayName(),
		Timestamp: msg.Date,
	})

	var ruleID *uint
	source := "adhoc"
	if res.RuleID != 0 {
		rid := res.RuleID
		ruleID = &rid
		source = "rule"
	}

	return &database.DownloadTask{
		TaskID:            id,
		RuleID:            ruleID,
		ChatID:            msg.ChatID,
		MessageID:         msg.MessageID,
		ChatTitle:         msg.ChatTitle,
		FileName:          msg.DisplayName(),
		ResolvedName:      resolved,
		SaveDir:           res.SaveDir,
		TotalSize:         msg.Size,
		Source:            source,
		AddDownloadSuffix: res.AddDownloadSuffix,
		MoveAfterComplete: res.MoveAfterComplete,
	}
}
