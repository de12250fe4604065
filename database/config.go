package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Runtime-mutable config keys. Values live in the config_items table so
// they survive restarts; the in-process cache is config.Runtime.
const (
	ConfigKeyDownloadPath     = "default_download_path"
	ConfigKeyFilenameTemplate = "default_filename_template"
)

// GetConfigItem returns the stored value for key, or fallback when the
// key has never been set.
func GetConfigItem(ctx context.Context, key, fallback string) (string, error) {
	var item ConfigItem
	err := db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

// SetConfigItem upserts one runtime config entry.
func SetConfigItem(ctx context.Context, key, value string) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&ConfigItem{Key: key, Value: value}).Error
}

// GetChatCursor returns the highest message id already scanned for a
// chat, 0 when the chat was never scanned.
func GetChatCursor(ctx context.Context, chatID int64) (int, error) {
	var cursor ChatCursor
	err := db.WithContext(ctx).Where("chat_id = ?", chatID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cursor.LastMessageID, nil
}

// AdvanceChatCursor raises the stored cursor for a chat. Lower values
// are ignored so concurrent scans can only move it forward.
func AdvanceChatCursor(ctx context.Context, chatID int64, messageID int) error {
	current, err := GetChatCursor(ctx, chatID)
	if err != nil {
		return err
	}
	if messageID <= current {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_message_id", "updated_at"}),
	}).Create(&ChatCursor{ChatID: chatID, LastMessageID: messageID}).Error
}
