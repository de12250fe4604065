package scheduler

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/SuperrNaruto/chatdl/core/placement"
	"github.com/SuperrNaruto/chatdl/pkg/apperr"
	"github.com/SuperrNaruto/chatdl/pkg/enums/taskstatus"
)

// Pause takes a task out of contention. Queued tasks leave the queue
// immediately; downloading tasks get their transfer cancelled and
// settle to paused once the worker observes it. Any other state is an
// illegal-state error.
func (s *Scheduler) Pause(ctx context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return s.lookupMissing(ctx, id)
	}

	switch t.status {
	case taskstatus.Queued:
		s.removeFromQueue(id)
		t.status = taskstatus.Paused
		s.mu.Unlock()
		return s.store.SetStatus(ctx, id, taskstatus.Paused.String(), "")
	case taskstatus.Downloading:
		if t.cancel != nil {
			t.cancel()
		}
		s.mu.Unlock()
		return nil
	default:
		s.mu.Unlock()
		return apperr.IllegalStatef("task %s is %s", id, t.status)
	}
}

// Resume puts a paused task back in the queue. Any other state is an
// illegal-state error.
func (s *Scheduler) Resume(ctx context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return s.lookupMissing(ctx, id)
	}

	if t.status != taskstatus.Paused {
		s.mu.Unlock()
		return apperr.IllegalStatef("task %s is %s", id, t.status)
	}
	t.status = taskstatus.Queued
	s.queue = append(s.queue, id)
	s.dispatch()
	s.mu.Unlock()
	return s.store.SetStatus(ctx, id, taskstatus.Queued.String(), "")
}

// SetPriority flips a task's priority flag. Queued tasks are promoted
// ahead of non-priority tasks at the next dispatch; downloading tasks
// keep their slot and carry the flag if they return to the queue.
func (s *Scheduler) SetPriority(ctx context.Context, id string, priority bool) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return s.lookupMissing(ctx, id)
	}
	t.priority = priority
	s.mu.Unlock()
	return s.store.SetPriority(ctx, id, priority)
}

// Delete removes a task in any state. A downloading task is cancelled
// first and its row removed by the worker. With deleteFile the placed
// or partial file is removed as well; deleting an unknown id is a
// no-op.
func (s *Scheduler) Delete(ctx context.Context, id string, deleteFile bool) error {
	s.mu.Lock()
	if t, ok := s.tasks[id]; ok {
		if t.status == taskstatus.Downloading {
			t.deleting = true
			t.deleteFile = deleteFile
			if t.cancel != nil {
				t.cancel()
			}
			s.mu.Unlock()
			return nil
		}
		s.removeFromQueue(id)
		delete(s.tasks, id)
		row := t.row
		s.mu.Unlock()
		if deleteFile {
			removeArtifacts(placement.Paths(row.SaveDir, row.ResolvedName, row.AddDownloadSuffix, row.MoveAfterComplete))
		}
		return s.store.Delete(ctx, id)
	}
	s.mu.Unlock()

	// Terminal or unknown: operate on the stored row alone.
	row, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if deleteFile {
		if row.FilePath != "" {
			removePath(row.FilePath)
		} else {
			removeArtifacts(placement.Paths(row.SaveDir, row.ResolvedName, row.AddDownloadSuffix, row.MoveAfterComplete))
		}
	}
	return s.store.Delete(ctx, id)
}

// PauseAll pauses every queued and downloading task and returns how
// many were affected.
func (s *Scheduler) PauseAll(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id, t := range s.tasks {
		if t.status == taskstatus.Queued || t.status == taskstatus.Downloading {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if err := s.Pause(ctx, id); err != nil {
			log.FromContext(ctx).Debugf("Pause all skipped %s: %v", id, err)
			continue
		}
		n++
	}
	return n
}

// ResumeAll requeues every paused task and returns how many were
// affected.
func (s *Scheduler) ResumeAll(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id, t := range s.tasks {
		if t.status == taskstatus.Paused {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if err := s.Resume(ctx, id); err != nil {
			log.FromContext(ctx).Debugf("Resume all skipped %s: %v", id, err)
			continue
		}
		n++
	}
	return n
}

// removeFromQueue drops id from the wait queue if present. Caller must
// hold mu.
func (s *Scheduler) removeFromQueue(id string) {
	for i, qid := range s.queue {
		if qid == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func removePath(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove %s: %v", path, err)
	}
}
