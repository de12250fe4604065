package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

func initTestDB(t *testing.T) context.Context {
	t.Helper()
	ctx := context.Background()
	if err := Init(ctx, filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
	return ctx
}

func TestRuleCRUD(t *testing.T) {
	ctx := initTestDB(t)

	r := &Rule{ChatID: 100, Mode: "monitor", Enabled: true, IncludeExtensions: "mp4"}
	if err := CreateRule(ctx, r); err != nil {
		t.Fatalf("CreateRule() error: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("rule id not assigned")
	}

	got, err := GetRuleByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRuleByID() error: %v", err)
	}
	if got.IncludeExtensions != "mp4" {
		t.Errorf("IncludeExtensions = %q", got.IncludeExtensions)
	}

	if err := UpdateRule(ctx, r.ID, map[string]any{"enabled": false, "save_dir": "/media"}); err != nil {
		t.Fatalf("UpdateRule() error: %v", err)
	}
	got, _ = GetRuleByID(ctx, r.ID)
	if got.Enabled || got.SaveDir != "/media" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := UpdateRule(ctx, 9999, map[string]any{"enabled": true}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("UpdateRule() on missing rule = %v, want record not found", err)
	}

	if err := DeleteRule(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRule() error: %v", err)
	}
	if _, err := GetRuleByID(ctx, r.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetRuleByID() after delete = %v, want record not found", err)
	}
	if err := DeleteRule(ctx, r.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second DeleteRule() = %v, want record not found", err)
	}
}

func TestEnabledRulesOrderedByCreation(t *testing.T) {
	ctx := initTestDB(t)

	for _, ext := range []string{"mp4", "mkv", "pdf"} {
		if err := CreateRule(ctx, &Rule{ChatID: 100, Mode: "monitor", Enabled: true, IncludeExtensions: ext}); err != nil {
			t.Fatal(err)
		}
	}
	if err := CreateRule(ctx, &Rule{ChatID: 100, Mode: "monitor", Enabled: false, IncludeExtensions: "zip"}); err != nil {
		t.Fatal(err)
	}
	if err := CreateRule(ctx, &Rule{ChatID: 200, Mode: "monitor", Enabled: true}); err != nil {
		t.Fatal(err)
	}

	rules, err := GetEnabledRulesForChat(ctx, 100)
	if err != nil {
		t.Fatalf("GetEnabledRulesForChat() error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}
	for i, want := range []string{"mp4", "mkv", "pdf"} {
		if rules[i].IncludeExtensions != want {
			t.Errorf("rules[%d] = %q, want %q (creation order)", i, rules[i].IncludeExtensions, want)
		}
	}
}

func TestCreateRuleKeepsDisabledFlag(t *testing.T) {
	ctx := initTestDB(t)

	r := &Rule{ChatID: 100, Mode: "monitor", Enabled: false, IncludeExtensions: "zip"}
	if err := CreateRule(ctx, r); err != nil {
		t.Fatalf("CreateRule() error: %v", err)
	}

	stored, err := GetRuleByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRuleByID() error: %v", err)
	}
	if stored.Enabled {
		t.Error("rule created disabled came back enabled")
	}
}

func TestTaskDeduplication(t *testing.T) {
	ctx := initTestDB(t)

	ruleID := uint(5)
	task := &DownloadTask{TaskID: "t1", RuleID: &ruleID, ChatID: 100, MessageID: 42}
	if err := CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	exists, err := TaskExists(ctx, 100, 42, &ruleID)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("TaskExists() = false for tracked triple")
	}

	otherRule := uint(6)
	if exists, _ := TaskExists(ctx, 100, 42, &otherRule); exists {
		t.Error("TaskExists() = true for different rule")
	}
	if exists, _ := TaskExists(ctx, 100, 42, nil); exists {
		t.Error("TaskExists() = true for ad-hoc slot of the same message")
	}

	adhoc := &DownloadTask{TaskID: "t2", ChatID: 100, MessageID: 42}
	if err := CreateTask(ctx, adhoc); err != nil {
		t.Fatalf("CreateTask() for ad-hoc error: %v", err)
	}
	if exists, _ := TaskExists(ctx, 100, 42, nil); !exists {
		t.Error("TaskExists() = false for tracked ad-hoc task")
	}
}

func TestTaskStatusAndProgress(t *testing.T) {
	ctx := initTestDB(t)

	if err := CreateTask(ctx, &DownloadTask{TaskID: "t1", ChatID: 1, MessageID: 1, Status: "pending"}); err != nil {
		t.Fatal(err)
	}

	if err := UpdateTaskStatus(ctx, "t1", "downloading", ""); err != nil {
		t.Fatalf("UpdateTaskStatus() error: %v", err)
	}
	if err := UpdateTaskProgress(ctx, "t1", 42.5, 1024, 2048); err != nil {
		t.Fatalf("UpdateTaskProgress() error: %v", err)
	}
	if err := SetTaskFilePath(ctx, "t1", "/dl/a.mp4"); err != nil {
		t.Fatalf("SetTaskFilePath() error: %v", err)
	}

	got, err := GetTaskByTaskID(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "downloading" || got.Progress != 42.5 || got.TotalSize != 2048 || got.FilePath != "/dl/a.mp4" {
		t.Errorf("task row = %+v", got)
	}

	if err := UpdateTaskStatus(ctx, "missing", "paused", ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("UpdateTaskStatus() on missing task = %v, want record not found", err)
	}
	if err := DeleteTask(ctx, "missing"); err != nil {
		t.Errorf("DeleteTask() on missing task = %v, want nil", err)
	}
}

func TestQueryTasks(t *testing.T) {
	ctx := initTestDB(t)

	ruleA, ruleB := uint(1), uint(2)
	seed := []DownloadTask{
		{TaskID: "t1", RuleID: &ruleA, ChatID: 1, MessageID: 1, Status: "completed", TotalSize: 10 << 20, SaveDir: "/media/shows"},
		{TaskID: "t2", RuleID: &ruleA, ChatID: 1, MessageID: 2, Status: "failed", TotalSize: 50 << 20, SaveDir: "/media/shows"},
		{TaskID: "t3", RuleID: &ruleB, ChatID: 1, MessageID: 3, Status: "completed", TotalSize: 200 << 20, SaveDir: "/backups"},
		{TaskID: "t4", RuleID: &ruleB, ChatID: 1, MessageID: 4, Status: "downloading", TotalSize: 5 << 20, SaveDir: "/backups"},
	}
	for i := range seed {
		if err := CreateTask(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	tasks, total, err := QueryTasks(ctx, TaskQuery{Statuses: []string{"completed"}})
	if err != nil {
		t.Fatalf("QueryTasks() error: %v", err)
	}
	if total != 2 || len(tasks) != 2 {
		t.Errorf("status filter: total = %d, page len = %d, want 2/2", total, len(tasks))
	}

	tasks, total, _ = QueryTasks(ctx, TaskQuery{RuleID: &ruleB})
	if total != 2 {
		t.Errorf("rule filter: total = %d, want 2", total)
	}
	for _, task := range tasks {
		if task.RuleID == nil || *task.RuleID != ruleB {
			t.Errorf("rule filter returned task %s", task.TaskID)
		}
	}

	_, total, _ = QueryTasks(ctx, TaskQuery{PathContains: "shows"})
	if total != 2 {
		t.Errorf("path filter: total = %d, want 2", total)
	}

	_, total, _ = QueryTasks(ctx, TaskQuery{MinSizeBytes: 20 << 20, MaxSizeBytes: 300 << 20})
	if total != 2 {
		t.Errorf("size filter: total = %d, want 2", total)
	}

	tasks, total, _ = QueryTasks(ctx, TaskQuery{Page: 1, PerPage: 3})
	if total != 4 || len(tasks) != 3 {
		t.Errorf("page 1: total = %d, len = %d, want 4/3", total, len(tasks))
	}
	tasks, _, _ = QueryTasks(ctx, TaskQuery{Page: 2, PerPage: 3})
	if len(tasks) != 1 {
		t.Errorf("page 2: len = %d, want 1", len(tasks))
	}
}

func TestConfigItems(t *testing.T) {
	ctx := initTestDB(t)

	got, err := GetConfigItem(ctx, ConfigKeyDownloadPath, "/fallback")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/fallback" {
		t.Errorf("GetConfigItem() = %q, want fallback", got)
	}

	if err := SetConfigItem(ctx, ConfigKeyDownloadPath, "/dl"); err != nil {
		t.Fatalf("SetConfigItem() error: %v", err)
	}
	if err := SetConfigItem(ctx, ConfigKeyDownloadPath, "/dl2"); err != nil {
		t.Fatalf("SetConfigItem() upsert error: %v", err)
	}
	got, _ = GetConfigItem(ctx, ConfigKeyDownloadPath, "/fallback")
	if got != "/dl2" {
		t.Errorf("GetConfigItem() = %q, want /dl2", got)
	}
}

func TestChatCursorMonotonic(t *testing.T) {
	ctx := initTestDB(t)

	if cur, _ := GetChatCursor(ctx, 100); cur != 0 {
		t.Errorf("fresh cursor = %d, want 0", cur)
	}
	if err := AdvanceChatCursor(ctx, 100, 50); err != nil {
		t.Fatal(err)
	}
	if err := AdvanceChatCursor(ctx, 100, 30); err != nil {
		t.Fatal(err)
	}
	if cur, _ := GetChatCursor(ctx, 100); cur != 50 {
		t.Errorf("cursor = %d, want 50 (lower advance ignored)", cur)
	}
	if err := AdvanceChatCursor(ctx, 100, 80); err != nil {
		t.Fatal(err)
	}
	if cur, _ := GetChatCursor(ctx, 100); cur != 80 {
		t.Errorf("cursor = %d, want 80", cur)
	}
}
