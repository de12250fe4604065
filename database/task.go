package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TaskQuery describes a paginated, filterable task listing.
type TaskQuery struct {
	Statuses      []string
	RuleID        *uint
	PathContains  string
	MinSizeBytes  int64
	MaxSizeBytes  int64 // 0 means no upper bound
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int // 1-based
	PerPage       int
}

// CreateTask persists a new download task record.
func CreateTask(ctx context.Context, task *DownloadTask) error {
	return db.WithContext(ctx).Create(task).Error
}

// GetTaskByTaskID returns the record for a public task id.
func GetTaskByTaskID(ctx context.Context, taskID string) (*DownloadTask, error) {
	var task DownloadTask
	if err := db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskExists reports whether a task already exists for the
// (chat, message, rule) identity triple. This is the catch-up
// deduplication key.
func TaskExists(ctx context.Context, chatID int64, messageID int, ruleID *uint) (bool, error) {
	q := db.WithContext(ctx).Model(&DownloadTask{}).
		Where("chat_id = ? AND message_id = ?", chatID, messageID)
	if ruleID != nil {
		q = q.Where("rule_id = ?", *ruleID)
	} else {
		q = q.Where("rule_id IS NULL")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateTaskStatus sets the status and error detail of a task.
func UpdateTaskStatus(ctx context.Context, taskID string, status string, errDetail string) error {
	return updateTask(ctx, taskID, map[string]any{
		"status": status,
		"error":  errDetail,
	})
}

// UpdateTaskProgress stores the latest progress percentage, speed and,
// once known, the total size.
func UpdateTaskProgress(ctx context.Context, taskID string, progress, speed float64, totalSize int64) error {
	updates := map[string]any{
		"progress": progress,
		"speed":    speed,
	}
	if totalSize > 0 {
		updates["total_size"] = totalSize
	}
	return updateTask(ctx, taskID, updates)
}

// UpdateTaskPriority flips the priority flag.
func UpdateTaskPriority(ctx context.Context, taskID string, priority bool) error {
	return updateTask(ctx, taskID, map[string]any{"priority": priority})
}

// SetTaskFilePath records the final file path once placement completed.
func SetTaskFilePath(ctx context.Context, taskID string, path string) error {
	return updateTask(ctx, taskID, map[string]any{"file_path": path})
}

func updateTask(ctx context.Context, taskID string, updates map[string]any) error {
	res := db.WithContext(ctx).Model(&DownloadTask{}).
		Where("task_id = ?", taskID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update task %s: %w", taskID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTask removes the task record. Missing records are not an error:
// delete is idempotent at the store level.
func DeleteTask(ctx context.Context, taskID string) error {
	err := db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&DownloadTask{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// ListTasksByStatus returns all tasks in any of the given statuses in
// creation order. Used to restore the queue after a restart.
func ListTasksByStatus(ctx context.Context, statuses ...string) ([]DownloadTask, error) {
	var tasks []DownloadTask
	err := db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}

// QueryTasks returns one page of tasks matching the query plus the
// total match count.
func QueryTasks(ctx context.Context, q TaskQuery) ([]DownloadTask, int64, error) {
	tx := db.WithContext(ctx).Model(&DownloadTask{})
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if q.RuleID != nil {
		tx = tx.Where("rule_id = ?", *q.RuleID)
	}
	if q.PathContains != "" {
		tx = tx.Where("save_dir LIKE ? OR file_path LIKE ?",
			"%"+q.PathContains+"%", "%"+q.PathContains+"%")
	}
	if q.MinSizeBytes > 0 {
		tx = tx.Where("total_size >= ?", q.MinSizeBytes)
	}
	if q.MaxSizeBytes > 0 {
		tx = tx.Where("total_size <= ?", q.MaxSizeBytes)
	}
	if q.CreatedAfter != nil {
		tx = tx.Where("created_at >= ?", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		tx = tx.Where("created_at < ?", *q.CreatedBefore)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	var tasks []DownloadTask
	err := tx.Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
