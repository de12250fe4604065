// Package api is the boundary surface of the downloader: rule
// management, task control, runtime settings and the inbound message
// feed all enter through Service. Handlers validate here, the scheduler
// and scanner do the work.
package api

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/SuperrNaruto/chatdl/config"
	"github.com/SuperrNaruto/chatdl/core/rule"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/enums/rulemode"
	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

// TaskController is the scheduler surface the service drives.
type TaskController interface {
	Enqueue(ctx context.Context, task *database.DownloadTask) (string, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	SetPriority(ctx context.Context, id string, priority bool) error
	Delete(ctx context.Context, id string, deleteFile bool) error
	PauseAll(ctx context.Context) int
	ResumeAll(ctx context.Context) int
}

// HistoryScanner runs catch-up scans for rules.
type HistoryScanner interface {
	Scan(ctx context.Context, r database.Rule) (int, error)
}

type Service struct {
	sched   TaskController
	scanner HistoryScanner

	// scanCtx bounds the background scans the service spawns; it
	// outlives individual request contexts.
	scanCtx context.Context
}

func NewService(scanCtx context.Context, sched TaskController, scanner HistoryScanner) *Service {
	return &Service{sched: sched, scanner: scanner, scanCtx: scanCtx}
}

func (s *Service) defaults() rule.Defaults {
	return rule.Defaults{
		SaveDir:          config.DefaultDownloadPath(),
		FilenameTemplate: config.DefaultFilenameTemplate(),
	}
}

// HandleFileMessage evaluates one live inbound file message against the
// chat's enabled monitor rules and enqueues a task for the first match.
// Messages without a match are dropped silently; the chat cursor still
// advances so later catch-up scans skip them.
func (s *Service) HandleFileMessage(ctx context.Context, msg tgfile.FileMessage) error {
	logger := log.FromContext(ctx).With("chat_id", msg.ChatID, "message_id", msg.MessageID)

	all, err := database.GetEnabledRulesForChat(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	monitor := make([]database.Rule, 0, len(all))
	for _, r := range all {
		if r.Mode == rulemode.Monitor.String() {
			monitor = append(monitor, r)
		}
	}

	defer func() {
		if err := database.AdvanceChatCursor(ctx, msg.ChatID, msg.MessageID); err != nil {
			logger.Warnf("Failed to advance chat cursor: %v", err)
		}
	}()

	res := rule.Evaluate(msg, monitor, s.defaults())
	if res == nil {
		return nil
	}

	exists, err := database.TaskExists(ctx, msg.ChatID, msg.MessageID, &res.RuleID)
	if err != nil {
		return err
	}
	if exists {
		logger.Debugf("Message already tracked by rule %d", res.RuleID)
		return nil
	}

	id, err := s.sched.Enqueue(ctx, rule.NewTask(msg, res))
	if err != nil {
		return err
	}
	logger.Infof("Rule %d matched %s, task %s", res.RuleID, msg.DisplayName(), id)
	return nil
}

// triggerScan runs a rule's catch-up scan in the background, detached
// from the request that asked for it.
func (s *Service) triggerScan(r database.Rule) {
	go func() {
		if _, err := s.scanner.Scan(s.scanCtx, r); err != nil {
			log.Errorf("Catch-up scan failed for rule %d: %v", r.ID, err)
		}
	}()
}
