package telegram

import (
	"context"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/types"
	"github.com/charmbracelet/log"

	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// FileSink consumes each live inbound file message.
type FileSink func(ctx context.Context, msg tgfile.FileMessage) error

// RegisterFeed subscribes sink to every new media-bearing message seen
// by the account. Sink errors are logged, never propagated: one bad
// message must not stall the feed.
func (c *Client) RegisterFeed(sink FileSink) {
	c.tc.Dispatcher.AddHandler(handlers.NewMessage(filters.Message.Media, func(ctx *ext.Context, update *ext.Update) error {
		m := update.EffectiveMessage
		if m == nil {
			return dispatcher.ContinueGroups
		}
		chat := update.EffectiveChat()
		fm, ok := fileMessage(m.Message, chat.GetID(), chatTitle(update))
		if !ok {
			return dispatcher.ContinueGroups
		}
		if err := sink(ctx, fm); err != nil {
			log.FromContext(ctx).Errorf("Failed to handle file message %d in chat %d: %v",
				fm.MessageID, fm.ChatID, err)
		}
		return dispatcher.ContinueGroups
	}))
}

func chatTitle(update *ext.Update) string {
	switch chat := update.EffectiveChat().(type) {
	case *types.Channel:
		return chat.Title
	case *types.Chat:
		return chat.Title
	case *types.User:
		if chat.Username != "" {
			return chat.Username
		}
		return chat.FirstName
	}
	return ""
}
