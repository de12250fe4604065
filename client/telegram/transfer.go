package telegram

import (
	"context"
	"fmt"
	"os"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// Transfer downloads the media of one message to dest, streaming
// progress through onProgress. Satisfies the scheduler's Transferor.
func (c *Client) Transfer(ctx context.Context, chatID int64, messageID int, dest string, onProgress func(downloaded, total int64)) error {
	msg, err := c.message(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	loc, total, err := fileLocation(msg)
	if err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	w := &progressWriter{f: f, total: total, onProgress: onProgress}
	if _, err := downloader.NewDownloader().Download(c.tc.API(), loc).Stream(ctx, w); err != nil {
		return fmt.Errorf("download message %d from chat %d: %w", messageID, chatID, err)
	}
	return f.Sync()
}

// message fetches one raw message by id.
func (c *Client) message(ctx context.Context, chatID int64, messageID int) (*tg.Message, error) {
	extCtx := c.tc.CreateContext()
	msgs, err := extCtx.GetMessages(chatID, []tg.InputMessageClass{
		&tg.InputMessageID{ID: messageID},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch message %d from chat %d: %w", messageID, chatID, err)
	}
	for _, m := range msgs {
		if msg, ok := m.(*tg.Message); ok && msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("message %d not found in chat %d", messageID, chatID)
}

// progressWriter counts bytes as the downloader streams them.
type progressWriter struct {
	f          *os.File
	total      int64
	written    int64
	onProgress func(downloaded, total int64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.written += int64(n)
	if w.onProgress != nil && w.total > 0 {
		w.onProgress(w.written, w.total)
	}
	return n, err
}
