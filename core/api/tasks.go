package api

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/apperr"
	"github.com/SuperrNaruto/chatdl/pkg/enums/taskstatus"
)

// Tasks returns one page of tasks matching the query plus the total
// match count. Unknown status values are a validation error.
func (s *Service) Tasks(ctx context.Context, q database.TaskQuery) ([]database.DownloadTask, int64, error) {
	for _, st := range q.Statuses {
		if _, err := taskstatus.ParseStatus(st); err != nil {
			return nil, 0, apperr.Validationf("%v", err)
		}
	}
	if q.MinSizeBytes > 0 && q.MaxSizeBytes > 0 && q.MinSizeBytes > q.MaxSizeBytes {
		return nil, 0, apperr.Validationf("size filter min exceeds max")
	}
	return database.QueryTasks(ctx, q)
}

// GetTask returns one task by its public id.
func (s *Service) GetTask(ctx context.Context, id string) (*database.DownloadTask, error) {
	t, err := database.GetTaskByTaskID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("task %s", id)
	}
	return t, err
}

func (s *Service) PauseTask(ctx context.Context, id string) error {
	return s.sched.Pause(ctx, id)
}

func (s *Service) ResumeTask(ctx context.Context, id string) error {
	return s.sched.Resume(ctx, id)
}

func (s *Service) SetTaskPriority(ctx context.Context, id string, priority bool) error {
	return s.sched.SetPriority(ctx, id, priority)
}

func (s *Service) DeleteTask(ctx context.Context, id string, deleteFile bool) error {
	return s.sched.Delete(ctx, id, deleteFile)
}

// PauseAllTasks pauses every active task and returns how many were
// actually paused.
func (s *Service) PauseAllTasks(ctx context.Context) int {
	return s.sched.PauseAll(ctx)
}

// ResumeAllTasks requeues every paused task and returns how many were
// actually resumed.
func (s *Service) ResumeAllTasks(ctx context.Context) int {
	return s.sched.ResumeAll(ctx)
}
