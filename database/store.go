package database

import "context"

// TaskStore adapts the package-level task functions to the narrow
// repository interfaces consumed by the scheduler and the scanner, so
// those packages stay testable against fakes.
type TaskStore struct{}

func NewTaskStore() TaskStore { return TaskStore{} }

func (TaskStore) Create(ctx context.Context, task *DownloadTask) error {
	return CreateTask(ctx, task)
}

func (TaskStore) Get(ctx context.Context, taskID string) (*DownloadTask, error) {
	return GetTaskByTaskID(ctx, taskID)
}

func (TaskStore) Exists(ctx context.Context, chatID int64, messageID int, ruleID *uint) (bool, error) {
	return TaskExists(ctx, chatID, messageID, ruleID)
}

func (TaskStore) SetStatus(ctx context.Context, taskID, status, errDetail string) error {
	return UpdateTaskStatus(ctx, taskID, status, errDetail)
}

func (TaskStore) SetProgress(ctx context.Context, taskID string, progress, speed float64, totalSize int64) error {
	return UpdateTaskProgress(ctx, taskID, progress, speed, totalSize)
}

func (TaskStore) SetPriority(ctx context.Context, taskID string, priority bool) error {
	return UpdateTaskPriority(ctx, taskID, priority)
}

func (TaskStore) SetFilePath(ctx context.Context, taskID, path string) error {
	return SetTaskFilePath(ctx, taskID, path)
}

func (TaskStore) Delete(ctx context.Context, taskID string) error {
	return DeleteTask(ctx, taskID)
}

func (TaskStore) ListByStatus(ctx context.Context, statuses ...string) ([]DownloadTask, error) {
	return ListTasksByStatus(ctx, statuses...)
}

func (TaskStore) Cursor(ctx context.Context, chatID int64) (int, error) {
	return GetChatCursor(ctx, chatID)
}

func (TaskStore) AdvanceCursor(ctx context.Context, chatID int64, messageID int) error {
	return AdvanceChatCursor(ctx, chatID, messageID)
}
