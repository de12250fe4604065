package api

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SuperrNaruto/chatdl/core/rule"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/apperr"
	"github.com/SuperrNaruto/chatdl/pkg/enums/matchmode"
	"github.com/SuperrNaruto/chatdl/pkg/enums/rulemode"
)

// RuleInput carries the fields accepted when creating a rule. Zero
// values mean "unset" and fall back to defaults.
type RuleInput struct {
	ChatID    int64
	ChatTitle string
	Mode      string
	Enabled   *bool

	IncludeExtensions string
	SizeRange         string
	MatchMode         string
	IncludeKeywords   string
	ExcludeKeywords   string
	StartTime         *time.Time
	EndTime           *time.Time

	SaveDir          string
	FilenameTemplate string

	AddDownloadSuffix bool
	MoveAfterComplete bool
	AutoCatchUp       bool
}

// RuleUpdate carries a partial rule update; nil fields are untouched.
type RuleUpdate struct {
	ChatTitle *string
	Mode      *string
	Enabled   *bool

	IncludeExtensions *string
	SizeRange         *string
	MatchMode         *string
	IncludeKeywords   *string
	ExcludeKeywords   *string
	StartTime         *time.Time
	EndTime           *time.Time
	ClearTimeWindow   bool

	SaveDir          *string
	FilenameTemplate *string

	AddDownloadSuffix *bool
	MoveAfterComplete *bool
	AutoCatchUp       *bool
}

// CreateRule validates and persists a new rule. History rules and
// monitor rules with auto catch-up enabled get a background history
// scan right away.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*database.Rule, error) {
	if in.ChatID == 0 {
		return nil, apperr.Validationf("chat id is required")
	}

	mode := rulemode.Monitor
	if in.Mode != "" {
		m, err := rulemode.ParseMode(in.Mode)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		mode = m
	}

	mm := matchmode.All
	if in.MatchMode != "" {
		m, err := matchmode.ParseMode(in.MatchMode)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		mm = m
	}

	minBytes, maxBytes, err := rule.ParseSizeRange(in.SizeRange)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	if in.StartTime != nil && in.EndTime != nil && !in.StartTime.Before(*in.EndTime) {
		return nil, apperr.Validationf("time window start must precede end")
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	r := &database.Rule{
		ChatID:            in.ChatID,
		ChatTitle:         in.ChatTitle,
		Mode:              mode.String(),
		Enabled:           enabled,
		IncludeExtensions: in.IncludeExtensions,
		SizeRange:         in.SizeRange,
		MinSizeBytes:      minBytes,
		MaxSizeBytes:      maxBytes,
		MatchMode:         mm.String(),
		IncludeKeywords:   in.IncludeKeywords,
		ExcludeKeywords:   in.ExcludeKeywords,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		SaveDir:           in.SaveDir,
		FilenameTemplate:  in.FilenameTemplate,
		AddDownloadSuffix: in.AddDownloadSuffix,
		MoveAfterComplete: in.MoveAfterComplete,
		AutoCatchUp:       in.AutoCatchUp,
	}
	if err := database.CreateRule(ctx, r); err != nil {
		return nil, err
	}

	if enabled && (mode == rulemode.History || in.AutoCatchUp) {
		s.triggerScan(*r)
	}
	return r, nil
}

// UpdateRule applies a partial update. Enabling a rule that wants
// catch-up, or turning catch-up on for an enabled rule, triggers a
// background scan.
func (s *Service) UpdateRule(ctx context.Context, id uint, up RuleUpdate) (*database.Rule, error) {
	updates := map[string]any{}

	if up.ChatTitle != nil {
		updates["chat_title"] = *up.ChatTitle
	}
	if up.Mode != nil {
		m, err := rulemode.ParseMode(*up.Mode)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		updates["mode"] = m.String()
	}
	if up.Enabled != nil {
		updates["enabled"] = *up.Enabled
	}
	if up.IncludeExtensions != nil {
		updates["include_extensions"] = *up.IncludeExtensions
	}
	if up.SizeRange != nil {
		minBytes, maxBytes, err := rule.ParseSizeRange(*up.SizeRange)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		updates["size_range"] = *up.SizeRange
		updates["min_size_bytes"] = minBytes
		updates["max_size_bytes"] = maxBytes
	}
	if up.MatchMode != nil {
		m, err := matchmode.ParseMode(*up.MatchMode)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		updates["match_mode"] = m.String()
	}
	if up.IncludeKeywords != nil {
		updates["include_keywords"] = *up.IncludeKeywords
	}
	if up.ExcludeKeywords != nil {
		updates["exclude_keywords"] = *up.ExcludeKeywords
	}
	if up.ClearTimeWindow {
		updates["start_time"] = nil
		updates["end_time"] = nil
	} else {
		if up.StartTime != nil {
			updates["start_time"] = *up.StartTime
		}
		if up.EndTime != nil {
			updates["end_time"] = *up.EndTime
		}
	}
	if up.SaveDir != nil {
		updates["save_dir"] = *up.SaveDir
	}
	if up.FilenameTemplate != nil {
		updates["filename_template"] = *up.FilenameTemplate
	}
	if up.AddDownloadSuffix != nil {
		updates["add_download_suffix"] = *up.AddDownloadSuffix
	}
	if up.MoveAfterComplete != nil {
		updates["move_after_complete"] = *up.MoveAfterComplete
	}
	if up.AutoCatchUp != nil {
		updates["auto_catch_up"] = *up.AutoCatchUp
	}

	if err := database.UpdateRule(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("rule %d", id)
		}
		return nil, err
	}

	r, err := database.GetRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	catchUpTurnedOn := (up.Enabled != nil && *up.Enabled) ||
		(up.AutoCatchUp != nil && *up.AutoCatchUp)
	if catchUpTurnedOn && r.Enabled && (r.AutoCatchUp || r.Mode == rulemode.History.String()) {
		s.triggerScan(*r)
	}
	return r, nil
}

// GetRule returns one rule.
func (s *Service) GetRule(ctx context.Context, id uint) (*database.Rule, error) {
	r, err := database.GetRuleByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("rule %d", id)
	}
	return r, err
}

// ListRules lists rules, optionally filtered by chat and mode.
func (s *Service) ListRules(ctx context.Context, chatID *int64, mode string) ([]database.Rule, error) {
	if mode != "" {
		if _, err := rulemode.ParseMode(mode); err != nil {
			return nil, apperr.Validationf("%v", err)
		}
	}
	return database.ListRules(ctx, chatID, mode)
}

// DeleteRule removes a rule. Its existing tasks keep running and keep
// their records.
func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	err := database.DeleteRule(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("rule %d", id)
	}
	return err
}

// ScanRule runs a rule's catch-up scan synchronously and returns the
// number of tasks enqueued.
func (s *Service) ScanRule(ctx context.Context, id uint) (int, error) {
	r, err := s.GetRule(ctx, id)
	if err != nil {
		return 0, err
	}
	if !r.Enabled {
		return 0, apperr.IllegalStatef("rule %d is disabled", id)
	}
	return s.scanner.Scan(ctx, *r)
}
