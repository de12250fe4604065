package placement

import (
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/duke-git/lancet/v2/strutil"
)

// Identity carries the task fields available to filename templates.
type Identity struct {
	TaskID    string
	MessageID int
	ChatTitle string
	FileName  string // origin file name
	Timestamp time.Time
}

var placeholderRe = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

// ExpandTemplate substitutes the template placeholders {task_id}
// {message_id} {chat_title} {timestamp} {file_name} {year} {month}
// {day} with the task's identity fields. Unrecognized placeholders
// expand to the empty string. When the origin file name carries an
// extension and the expanded name does not, the origin extension is
// appended so the result stays openable.
func ExpandTemplate(template string, id Identity) string {
	vars := map[string]string{
		"{task_id}":    id.TaskID,
		"{message_id}": fmt.Sprintf("%d", id.MessageID),
		"{chat_title}": sanitizeComponent(id.ChatTitle),
		"{timestamp}":  fmt.Sprintf("%d", id.Timestamp.Unix()),
		"{file_name}":  id.FileName,
		"{year}":       id.Timestamp.Format("2006"),
		"{month}":      id.Timestamp.Format("01"),
		"{day}":        id.Timestamp.Format("02"),
	}

	name := placeholderRe.ReplaceAllStringFunc(template, func(ph string) string {
		return vars[ph] // unknown placeholders become ""
	})

	if originExt := path.Ext(id.FileName); originExt != "" && path.Ext(name) == "" {
		name += originExt
	}
	return name
}

// sanitizeComponent makes a chat title safe as a path component.
func sanitizeComponent(s string) string {
	if s == "" {
		return s
	}
	return strutil.ReplaceWithMap(s, map[string]string{
		"/":  "_",
		"\\": "_",
	})
}
