package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

const historyBatchSize = 100

// IterateFiles walks a chat's history newest first and calls fn for
// every file-bearing message with id above sinceID. Callers must not
// rely on message order.
func (c *Client) IterateFiles(ctx context.Context, chatID int64, sinceID int, fn func(tgfile.FileMessage) error) error {
	peer := c.tc.PeerStorage.GetInputPeerById(chatID)
	if _, empty := peer.(*tg.InputPeerEmpty); empty {
		return fmt.Errorf("chat %d is not known to this account", chatID)
	}

	api := c.tc.API()
	offsetID := 0
	for {
		res, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			MinID:    sinceID,
			Limit:    historyBatchSize,
		})
		if err != nil {
			return fmt.Errorf("fetch history of chat %d: %w", chatID, err)
		}

		batch := historyMessages(res)
		if len(batch) == 0 {
			return nil
		}

		for _, m := range batch {
			msg, ok := m.(*tg.Message)
			if !ok {
				continue
			}
			if msg.ID < offsetID || offsetID == 0 {
				offsetID = msg.ID
			}
			if msg.ID <= sinceID {
				return nil
			}
			fm, ok := fileMessage(msg, chatID, "")
			if !ok {
				continue
			}
			if err := fn(fm); err != nil {
				return err
			}
		}

		if len(batch) < historyBatchSize {
			return nil
		}
	}
}

func historyMessages(res tg.MessagesMessagesClass) []tg.MessageClass {
	switch m := res.(type) {
	case *tg.MessagesMessages:
		return m.Messages
	case *tg.MessagesMessagesSlice:
		return m.Messages
	case *tg.MessagesChannelMessages:
		return m.Messages
	}
	return nil
}
