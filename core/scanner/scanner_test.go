package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/SuperrNaruto/chatdl/core/rule"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/tgfile"
)

type fakeSource struct {
	messages []tgfile.FileMessage
}

func (f *fakeSource) IterateFiles(_ context.Context, chatID int64, sinceID int, fn func(tgfile.FileMessage) error) error {
	for _, m := range f.messages {
		if m.ChatID != chatID || m.MessageID <= sinceID {
			continue
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

type fakeScanStore struct {
	existing map[string]bool // "chat/message/rule"
	cursors  map[int64]int
}

func newFakeScanStore() *fakeScanStore {
	return &fakeScanStore{existing: make(map[string]bool), cursors: make(map[int64]int)}
}

func dedupKey(chatID int64, messageID int, ruleID *uint) string {
	r := uint(0)
	if ruleID != nil {
		r = *ruleID
	}
	return fmt.Sprintf("%d/%d/%d", chatID, messageID, r)
}

func (s *fakeScanStore) Exists(_ context.Context, chatID int64, messageID int, ruleID *uint) (bool, error) {
	return s.existing[dedupKey(chatID, messageID, ruleID)], nil
}

func (s *fakeScanStore) Cursor(_ context.Context, chatID int64) (int, error) {
	return s.cursors[chatID], nil
}

func (s *fakeScanStore) AdvanceCursor(_ context.Context, chatID int64, messageID int) error {
	if messageID > s.cursors[chatID] {
		s.cursors[chatID] = messageID
	}
	return nil
}

type fakeEnqueuer struct {
	store    *fakeScanStore
	enqueued []*database.DownloadTask
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, task *database.DownloadTask) (string, error) {
	e.enqueued = append(e.enqueued, task)
	e.store.existing[dedupKey(task.ChatID, task.MessageID, task.RuleID)] = true
	return task.TaskID, nil
}

func staticDefaults() rule.Defaults {
	return rule.Defaults{SaveDir: "/downloads", FilenameTemplate: "{file_name}"}
}

func chatMessages(chatID int64) []tgfile.FileMessage {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return []tgfile.FileMessage{
		{MessageID: 1, ChatID: chatID, FileName: "old.mp4", Size: 500 << 20, Date: base},
		{MessageID: 2, ChatID: chatID, FileName: "notes.txt", Size: 1 << 10, Date: base.AddDate(0, 0, 1)},
		{MessageID: 3, ChatID: chatID, FileName: "movie.mp4", Size: 700 << 20, Date: base.AddDate(0, 0, 2)},
		{MessageID: 4, ChatID: chatID, FileName: "clip.mp4", Size: 100 << 20, Date: base.AddDate(0, 0, 3)},
	}
}

func mp4Rule(chatID int64) database.Rule {
	r := database.Rule{
		ChatID:            chatID,
		ChatTitle:         "Movies",
		Mode:              "history",
		Enabled:           true,
		IncludeExtensions: "mp4",
		MatchMode:         "all",
	}
	r.ID = 7
	return r
}

func TestScanEnqueuesMatches(t *testing.T) {
	store := newFakeScanStore()
	enq := &fakeEnqueuer{store: store}
	s := New(&fakeSource{messages: chatMessages(100)}, store, enq, staticDefaults)

	n, err := s.Scan(context.Background(), mp4Rule(100))
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if n != 3 {
		t.Fatalf("Scan() = %d, want 3 mp4 matches", n)
	}

	var got []int
	for _, task := range enq.enqueued {
		got = append(got, task.MessageID)
		if task.SaveDir != "/downloads" {
			t.Errorf("task %d SaveDir = %q", task.MessageID, task.SaveDir)
		}
		if task.ChatTitle != "Movies" {
			t.Errorf("task %d ChatTitle = %q, want rule's chat title", task.MessageID, task.ChatTitle)
		}
	}
	if diff := cmp.Diff([]int{1, 3, 4}, got); diff != "" {
		t.Errorf("enqueued messages mismatch (-want +got):\n%s", diff)
	}

	if cur := store.cursors[100]; cur != 4 {
		t.Errorf("cursor = %d, want 4", cur)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	store := newFakeScanStore()
	enq := &fakeEnqueuer{store: store}
	s := New(&fakeSource{messages: chatMessages(100)}, store, enq, staticDefaults)

	r := mp4Rule(100)
	if _, err := s.Scan(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	first := len(enq.enqueued)

	// Rescanning from a reset cursor must not duplicate tasks.
	store.cursors[100] = 0
	n, err := s.Scan(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || len(enq.enqueued) != first {
		t.Errorf("second scan enqueued %d tasks, want 0", n)
	}
}

func TestScanResumesFromCursor(t *testing.T) {
	store := newFakeScanStore()
	store.cursors[100] = 3
	enq := &fakeEnqueuer{store: store}
	s := New(&fakeSource{messages: chatMessages(100)}, store, enq, staticDefaults)

	n, err := s.Scan(context.Background(), mp4Rule(100))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || enq.enqueued[0].MessageID != 4 {
		t.Errorf("Scan() = %d tasks, want only message 4", n)
	}
}

func TestScanWithTimeWindowIgnoresCursor(t *testing.T) {
	store := newFakeScanStore()
	store.cursors[100] = 4 // everything already seen by cursor standards

	r := mp4Rule(100)
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	r.StartTime, r.EndTime = &start, &end

	enq := &fakeEnqueuer{store: store}
	s := New(&fakeSource{messages: chatMessages(100)}, store, enq, staticDefaults)

	n, err := s.Scan(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	// Only message 3 is an mp4 inside [start, end).
	if n != 1 || enq.enqueued[0].MessageID != 3 {
		t.Errorf("Scan() enqueued %d tasks, want only message 3", n)
	}
	// Window scans must not move the monitor cursor.
	if cur := store.cursors[100]; cur != 4 {
		t.Errorf("cursor = %d, want untouched 4", cur)
	}
}
