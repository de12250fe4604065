// Package scanner walks chat history to pick up files a rule should
// have downloaded: the catch-up pass for newly created rules, history
// mode rules and startup recovery of monitor rules that were offline.
package scanner

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/SuperrNaruto/chatdl/core/rule"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// ErrStop may be returned from an iteration callback to end a history
// walk early without error.
var ErrStop = errors.New("stop iteration")

// HistorySource iterates a chat's file-bearing messages with ids above
// sinceID, in no guaranteed order. Implemented by the Telegram client.
type HistorySource interface {
	IterateFiles(ctx context.Context, chatID int64, sinceID int, fn func(tgfile.FileMessage) error) error
}

// Store is the persistence surface the scanner needs. Satisfied by
// database.TaskStore.
type Store interface {
	Exists(ctx context.Context, chatID int64, messageID int, ruleID *uint) (bool, error)
	Cursor(ctx context.Context, chatID int64) (int, error)
	AdvanceCursor(ctx context.Context, chatID int64, messageID int) error
}

// Enqueuer accepts the tasks a scan produces. Satisfied by the
// scheduler.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *database.DownloadTask) (string, error)
}

// DefaultsFunc supplies the global destination fallbacks at scan time,
// so a scan started later sees current settings.
type DefaultsFunc func() rule.Defaults

type Scanner struct {
	source   HistorySource
	store    Store
	sched    Enqueuer
	defaults DefaultsFunc
}

func New(source HistorySource, store Store, sched Enqueuer, defaults DefaultsFunc) *Scanner {
	return &Scanner{source: source, store: store, sched: sched, defaults: defaults}
}

// Scan walks one rule's chat history and enqueues every not yet tracked
// match. Rules with an explicit start time scan from the beginning so
// the window is honored; others resume from the chat cursor. Returns
// the number of tasks enqueued.
//
// Scanning is idempotent: the (chat, message, rule) dedup makes a
// repeated scan a no-op for messages already tracked.
func (s *Scanner) Scan(ctx context.Context, r database.Rule) (int, error) {
	logger := log.FromContext(ctx).With("rule_id", r.ID, "chat_id", r.ChatID)

	sinceID := 0
	useCursor := r.StartTime == nil
	if useCursor {
		cur, err := s.store.Cursor(ctx, r.ChatID)
		if err != nil {
			return 0, err
		}
		sinceID = cur
	}

	enqueued := 0
	maxID := sinceID
	defaults := s.defaults()
	rules := []database.Rule{r}

	err := s.source.IterateFiles(ctx, r.ChatID, sinceID, func(msg tgfile.FileMessage) error {
		if msg.MessageID > maxID {
			maxID = msg.MessageID
		}
		if msg.ChatTitle == "" {
			msg.ChatTitle = r.ChatTitle
		}
		res := rule.Evaluate(msg, rules, defaults)
		if res == nil {
			return nil
		}
		exists, err := s.store.Exists(ctx, msg.ChatID, msg.MessageID, &r.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := s.sched.Enqueue(ctx, rule.NewTask(msg, res)); err != nil {
			return err
		}
		enqueued++
		return nil
	})
	if err != nil && !errors.Is(err, ErrStop) {
		return enqueued, err
	}

	if useCursor && maxID > sinceID {
		if err := s.store.AdvanceCursor(ctx, r.ChatID, maxID); err != nil {
			logger.Warnf("Failed to advance chat cursor: %v", err)
		}
	}

	logger.Infof("Scan finished, %d tasks enqueued", enqueued)
	return enqueued, nil
}

// ScanStartup runs the catch-up scans owed after a restart: every
// enabled history rule plus every enabled monitor rule with
// auto_catch_up set.
func (s *Scanner) ScanStartup(ctx context.Context) error {
	rules, err := database.ListCatchUpRules(ctx)
	if err != nil {
		return err
	}
	for i := range rules {
		if _, err := s.Scan(ctx, rules[i]); err != nil {
			log.FromContext(ctx).Errorf("Startup scan failed for rule %d: %v", rules[i].ID, err)
		}
	}
	return nil
}
