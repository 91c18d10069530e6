package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := model.User{TelegramID: time.Now().UnixNano(), FirstName: "Pat"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedTask(t *testing.T, db *gorm.DB, userID uint, title, category string, due *string, done bool) *model.Task {
	t.Helper()
	task := model.Task{UserID: userID, Category: category, Title: title, DueDate: due, Done: done}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task %q: %v", title, err)
	}
	// SQLite timestamps have second precision; space creations out so
	// created_at ordering is observable.
	time.Sleep(2 * time.Millisecond)
	return &task
}

func strptr(s string) *string { return &s }

// newServices wires the interactive engines against one test database.
func newServices(t *testing.T, db *gorm.DB) (*BucketService, *BulkService, *FocusService, *FocusTracker, *TaskService) {
	t.Helper()
	taskRepo := repository.NewTaskRepository(db)
	slotRepo := repository.NewFocusSlotRepository(db)
	logRepo := repository.NewFocusLogRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	weekRepo := repository.NewWeekRepository(db)

	tracker := NewFocusTracker(logRepo, settingsRepo, testLogger())
	bulk := NewBulkService(taskRepo)
	bucket := NewBucketService(taskRepo, slotRepo)
	focus := NewFocusService(taskRepo, slotRepo, bulk, tracker)
	tasks := NewTaskService(taskRepo, weekRepo)
	return bucket, bulk, focus, tracker, tasks
}

// fakeClock is a manually advanced clock for timer tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memLogStore is an in-memory FocusLogStore with switchable failures, used
// to exercise the tracker's retry path.
type memLogStore struct {
	mu      sync.Mutex
	entries []model.FocusLog
	fail    bool
}

func (s *memLogStore) Append(_ context.Context, entry *model.FocusLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("store down")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memLogStore) SumForDate(_ context.Context, userID uint, date string) (map[uint]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := make(map[uint]int)
	for _, e := range s.entries {
		if e.UserID == userID && e.Date == date {
			sums[e.TaskID] += e.Minutes
		}
	}
	return sums, nil
}

func (s *memLogStore) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *memLogStore) snapshot() []model.FocusLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FocusLog, len(s.entries))
	copy(out, s.entries)
	return out
}

// fixedSettings serves one settings row for every user.
type fixedSettings struct {
	settings model.Settings
}

func (s *fixedSettings) GetOrDefault(_ context.Context, userID uint) (model.Settings, error) {
	out := s.settings
	out.UserID = userID
	return out, nil
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
