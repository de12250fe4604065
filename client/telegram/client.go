// Package telegram wraps the MTProto user client: the live message
// feed, history iteration for catch-up scans and the byte transfer the
// scheduler drives.
package telegram

import (
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"

	"github.com/SuperrNaruto/chatdl/config"
)

type Client struct {
	tc *gotgproto.Client
}

// NewClient logs in (or restores the stored session) and returns the
// connected client. Blocks for interactive auth on first run.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	if cfg.AppID == 0 || cfg.AppHash == "" {
		return nil, fmt.Errorf("telegram app_id and app_hash are required")
	}
	tc, err := gotgproto.NewClient(
		cfg.AppID,
		cfg.AppHash,
		gotgproto.ClientTypePhone(cfg.Phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(cfg.SessionPath)),
			DisableCopyright: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	log.Infof("Logged in as %s", tc.Self.Username)
	return &Client{tc: tc}, nil
}

// Idle blocks until the client disconnects.
func (c *Client) Idle() error {
	return c.tc.Idle()
}

// Stop disconnects the client.
func (c *Client) Stop() {
	c.tc.Stop()
}
