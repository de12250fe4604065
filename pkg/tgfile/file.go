package tgfile

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// FileMessage is one inbound file-bearing chat message, as delivered by
// the chat-platform client. It carries everything rule evaluation and
// task creation need; the raw transfer handle stays inside the client.
type FileMessage struct {
	MessageID int
	ChatID    int64
	ChatTitle string
	FileName  string
	Size      int64
	Caption   string
	Date      time.Time
}

// Ext returns the lowercase extension of the origin file name, without
// the leading dot. Empty when the name has no extension.
func (m FileMessage) Ext() string {
	return ExtOf(m.FileName)
}

// DisplayName returns the origin file name, synthesizing one from the
// message id when the platform supplied none.
func (m FileMessage) DisplayName() string {
	if m.FileName != "" {
		return m.FileName
	}
	return fmt.Sprintf("file_%d", m.MessageID)
}

// SearchText is the text the keyword filters run against: origin file
// name plus caption, matching how users think about "the message".
func (m FileMessage) SearchText() string {
	return strings.TrimSpace(m.FileName + " " + m.Caption)
}

// ExtOf extracts a lowercase extension (no dot) from a file name.
func ExtOf(name string) string {
	ext := path.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtFromMime maps a MIME type string to a file extension (no dot).
// Used when the platform reports a MIME type but no file name.
func ExtFromMime(mime string) string {
	if mt := mimetype.Lookup(mime); mt != nil {
		return strings.TrimPrefix(mt.Extension(), ".")
	}
	return ""
}
