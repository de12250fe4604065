// Package scheduler owns the task lifecycle: a bounded pool of
// concurrent downloads fed from a priority-aware FIFO queue, with all
// state transitions funneled through one mutex so observers never see
// more than the configured number of simultaneous transfers.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/SuperrNaruto/chatdl/common/utils/dlutil"
	"github.com/SuperrNaruto/chatdl/core/placement"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/apperr"
	"github.com/SuperrNaruto/chatdl/pkg/enums/taskstatus"
)

// TaskStore is the persistence surface the scheduler needs. Satisfied
// by database.TaskStore.
type TaskStore interface {
	Create(ctx context.Context, task *database.DownloadTask) error
	Get(ctx context.Context, taskID string) (*database.DownloadTask, error)
	SetStatus(ctx context.Context, taskID, status, errDetail string) error
	SetProgress(ctx context.Context, taskID string, progress, speed float64, totalSize int64) error
	SetPriority(ctx context.Context, taskID string, priority bool) error
	SetFilePath(ctx context.Context, taskID, path string) error
	Delete(ctx context.Context, taskID string) error
	ListByStatus(ctx context.Context, statuses ...string) ([]database.DownloadTask, error)
}

// Transferor moves the bytes of one message's file to a local path,
// reporting progress as it goes. Implemented by the Telegram client.
type Transferor interface {
	Transfer(ctx context.Context, chatID int64, messageID int, dest string, onProgress func(downloaded, total int64)) error
}

// task is the in-memory companion of one non-terminal DownloadTask row.
type task struct {
	row      database.DownloadTask
	status   taskstatus.Status
	priority bool

	cancel     context.CancelFunc // set while downloading
	deleting   bool
	deleteFile bool
}

type Scheduler struct {
	store TaskStore
	tr    Transferor
	limit int

	baseCtx context.Context
	wg      sync.WaitGroup

	mu      sync.Mutex
	tasks   map[string]*task
	queue   []string // task ids awaiting a slot, FIFO
	running int
}

// New builds a scheduler running at most limit transfers at once.
// baseCtx bounds the lifetime of every worker; cancel it to shut down.
func New(baseCtx context.Context, store TaskStore, tr Transferor, limit int) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	return &Scheduler{
		store:   store,
		tr:      tr,
		limit:   limit,
		baseCtx: baseCtx,
		tasks:   make(map[string]*task),
	}
}

// Enqueue persists a new task and queues it for download. A missing
// TaskID is assigned. Returns the task id.
func (s *Scheduler) Enqueue(ctx context.Context, row *database.DownloadTask) (string, error) {
	if row.TaskID == "" {
		row.TaskID = xid.New().String()
	}
	row.Status = taskstatus.Pending.String()
	if err := s.store.Create(ctx, row); err != nil {
		return "", err
	}
	if err := s.store.SetStatus(ctx, row.TaskID, taskstatus.Queued.String(), ""); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.tasks[row.TaskID] = &task{
		row:      *row,
		status:   taskstatus.Queued,
		priority: row.Priority,
	}
	s.queue = append(s.queue, row.TaskID)
	s.dispatch()
	s.mu.Unlock()

	log.FromContext(ctx).Infof("Queued task %s for %s (chat %d, message %d)",
		row.TaskID, row.ResolvedName, row.ChatID, row.MessageID)
	return row.TaskID, nil
}

// Restore loads every non-terminal task from the store after a restart.
// Tasks that were pending, queued or downloading are requeued; paused
// tasks stay paused but become resumable again.
func (s *Scheduler) Restore(ctx context.Context) error {
	rows, err := s.store.ListByStatus(ctx,
		taskstatus.Pending.String(),
		taskstatus.Queued.String(),
		taskstatus.Downloading.String(),
		taskstatus.Paused.String(),
	)
	if err != nil {
		return err
	}

	requeued := 0
	for i := range rows {
		row := rows[i]
		paused := row.Status == taskstatus.Paused.String()
		if !paused && row.Status != taskstatus.Queued.String() {
			if err := s.store.SetStatus(ctx, row.TaskID, taskstatus.Queued.String(), ""); err != nil {
				log.Warnf("Failed to requeue task %s: %v", row.TaskID, err)
				continue
			}
		}

		s.mu.Lock()
		t := &task{row: row, priority: row.Priority}
		if paused {
			t.status = taskstatus.Paused
		} else {
			t.status = taskstatus.Queued
			s.queue = append(s.queue, row.TaskID)
			requeued++
		}
		s.tasks[row.TaskID] = t
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.dispatch()
	s.mu.Unlock()

	if requeued > 0 || len(rows) > 0 {
		log.FromContext(ctx).Infof("Restored %d tasks, requeued %d", len(rows), requeued)
	}
	return nil
}

// Wait blocks until every running worker has finished. Call after
// cancelling the base context.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// dispatch promotes queued tasks into free slots. Priority tasks go
// first, FIFO within each class. Caller must hold mu.
func (s *Scheduler) dispatch() {
	if s.baseCtx.Err() != nil {
		return
	}
	for s.running < s.limit {
		id, ok := s.dequeue()
		if !ok {
			return
		}
		t := s.tasks[id]
		t.status = taskstatus.Downloading
		ctx, cancel := context.WithCancel(s.baseCtx)
		t.cancel = cancel
		s.running++
		s.wg.Add(1)
		go s.run(ctx, t)
	}
}

// dequeue pops the next task id: the first priority task if any exists,
// otherwise the head of the queue. Caller must hold mu.
func (s *Scheduler) dequeue() (string, bool) {
	if len(s.queue) == 0 {
		return "", false
	}
	pick := 0
	for i, id := range s.queue {
		if t, ok := s.tasks[id]; ok && t.priority {
			pick = i
			break
		}
	}
	id := s.queue[pick]
	s.queue = append(s.queue[:pick], s.queue[pick+1:]...)
	return id, true
}

// run executes one download to completion, pause or failure, then
// releases the slot and dispatches again.
func (s *Scheduler) run(ctx context.Context, t *task) {
	defer s.wg.Done()

	id := t.row.TaskID
	logger := log.FromContext(ctx).With("task_id", id)

	if err := s.store.SetStatus(ctx, id, taskstatus.Downloading.String(), ""); err != nil {
		logger.Warnf("Failed to mark task downloading: %v", err)
	}

	plan, err := placement.Plan(t.row.SaveDir, t.row.ResolvedName, t.row.AddDownloadSuffix, t.row.MoveAfterComplete)
	if err != nil {
		s.finish(t, nil, apperr.Placement(err))
		return
	}

	start := time.Now()
	lastPercent := 0
	onProgress := func(downloaded, total int64) {
		if !dlutil.ShouldUpdateProgress(downloaded, total, lastPercent) {
			return
		}
		lastPercent = int((downloaded * 100) / total)
		speed := dlutil.GetSpeed(downloaded, start)
		if err := s.store.SetProgress(context.WithoutCancel(ctx), id, float64(lastPercent), speed, total); err != nil {
			logger.Debugf("Failed to persist progress: %v", err)
		}
	}

	logger.Debugf("Downloading to %s", plan.WritePath)
	err = s.tr.Transfer(ctx, t.row.ChatID, t.row.MessageID, plan.WritePath, onProgress)
	if err != nil && ctx.Err() == nil {
		err = apperr.Transfer(err)
	}
	s.finish(t, plan, err)
}

// finish records the outcome of one worker and frees its slot. The
// whole commit runs inside one critical section: the deletion intent is
// re-read, the store updated and the runtime entry dropped under the
// same lock, so a concurrent Delete either lands before the commit (and
// is honored here) or after the entry is gone (and operates on the
// stored row). plan is nil when placement planning itself failed.
func (s *Scheduler) finish(t *task, plan *placement.Placement, err error) {
	// Workers outlive arbitrary request contexts; persistence here must
	// not be cut short by the cancel that stopped the transfer.
	ctx := context.WithoutCancel(s.baseCtx)
	id := t.row.TaskID

	s.mu.Lock()
	defer s.mu.Unlock()
	t.cancel = nil
	s.running--

	switch {
	case t.deleting:
		if plan != nil {
			if t.deleteFile {
				removeArtifacts(plan)
			} else {
				plan.Discard()
			}
		}
		if derr := s.store.Delete(ctx, id); derr != nil {
			log.Warnf("Failed to delete task %s: %v", id, derr)
		}
		delete(s.tasks, id)

	case err == nil:
		if ferr := plan.Finalize(); ferr != nil {
			plan.Discard()
			s.fail(ctx, t, apperr.Placement(ferr))
			delete(s.tasks, id)
			break
		}
		if serr := s.store.SetFilePath(ctx, id, plan.FinalPath); serr != nil {
			log.Warnf("Failed to record file path for task %s: %v", id, serr)
		}
		if serr := s.store.SetStatus(ctx, id, taskstatus.Completed.String(), ""); serr != nil {
			log.Warnf("Failed to mark task %s completed: %v", id, serr)
		}
		log.Infof("Task %s completed: %s (%s)", id, plan.FinalPath, dlutil.FormatSize(t.row.TotalSize))
		delete(s.tasks, id)

	case s.baseCtx.Err() != nil:
		// Shutdown: keep the task queued so a restart picks it up.
		if plan != nil {
			plan.Discard()
		}
		if serr := s.store.SetStatus(ctx, id, taskstatus.Queued.String(), ""); serr != nil {
			log.Warnf("Failed to requeue task %s on shutdown: %v", id, serr)
		}
		t.status = taskstatus.Queued
		s.queue = append(s.queue, id)

	case errors.Is(err, context.Canceled):
		// Cancelled by a pause request.
		if plan != nil {
			plan.Discard()
		}
		if serr := s.store.SetStatus(ctx, id, taskstatus.Paused.String(), ""); serr != nil {
			log.Warnf("Failed to mark task %s paused: %v", id, serr)
		}
		log.Infof("Task %s paused", id)
		t.status = taskstatus.Paused

	default:
		if plan != nil {
			plan.Discard()
		}
		s.fail(ctx, t, err)
		delete(s.tasks, id)
	}

	s.dispatch()
}

func (s *Scheduler) fail(ctx context.Context, t *task, err error) {
	id := t.row.TaskID
	log.Errorf("Task %s failed: %v", id, err)
	if serr := s.store.SetStatus(ctx, id, taskstatus.Failed.String(), err.Error()); serr != nil {
		log.Warnf("Failed to mark task %s failed: %v", id, serr)
	}
}

// lookupMissing classifies a control operation on an id the scheduler
// does not hold: terminal tasks are an illegal-state error, unknown ids
// are not found.
func (s *Scheduler) lookupMissing(ctx context.Context, id string) error {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("task %s", id)
		}
		return err
	}
	return apperr.IllegalStatef("task %s is %s", id, row.Status)
}

func removeArtifacts(plan *placement.Placement) {
	for _, p := range plan.Artifacts() {
		if p == "" {
			continue
		}
		removePath(p)
	}
}
