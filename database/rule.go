package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CreateRule persists a new rule.
func CreateRule(ctx context.Context, rule *Rule) error {
	return db.WithContext(ctx).Create(rule).Error
}

// GetRuleByID returns one rule or gorm.ErrRecordNotFound.
func GetRuleByID(ctx context.Context, id uint) (*Rule, error) {
	var rule Rule
	if err := db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule applies the given column updates to an existing rule.
// The updates map uses gorm column names.
func UpdateRule(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&Rule{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update rule %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRule removes a rule. Tasks created by it keep their records.
func DeleteRule(ctx context.Context, id uint) error {
	res := db.WithContext(ctx).Delete(&Rule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRules returns rules, optionally filtered by chat and mode,
// newest first (the admin listing order).
func ListRules(ctx context.Context, chatID *int64, mode string) ([]Rule, error) {
	q := db.WithContext(ctx).Model(&Rule{})
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}
	if mode != "" {
		q = q.Where("mode = ?", mode)
	}
	var rules []Rule
	err := q.Order("created_at DESC, id DESC").Find(&rules).Error
	return rules, err
}

// GetEnabledRulesForChat returns the enabled rules for one chat in
// ascending creation order. The matcher walks this slice front to back,
// so creation order is the rule precedence.
func GetEnabledRulesForChat(ctx context.Context, chatID int64) ([]Rule, error) {
	var rules []Rule
	err := db.WithContext(ctx).
		Where("chat_id = ? AND enabled = ?", chatID, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

// ListCatchUpRules returns the enabled rules owed a history scan at
// service startup: history mode rules and monitor rules flagged for
// auto catch-up.
func ListCatchUpRules(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	err := db.WithContext(ctx).
		Where("enabled = ? AND (auto_catch_up = ? OR mode = ?)", true, true, "history").
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	return rules, err
}
