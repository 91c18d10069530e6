package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
)

// FocusLogStore is the slice of the store the tracker writes through.
type FocusLogStore interface {
	Append(ctx context.Context, entry *model.FocusLog) error
	SumForDate(ctx context.Context, userID uint, date string) (map[uint]int, error)
}

// SettingsStore reads the per-user preferences the focus-done rule needs.
type SettingsStore interface {
	GetOrDefault(ctx context.Context, userID uint) (model.Settings, error)
}

// FocusTracker owns the per-slot focus timers. Each user has at most one
// running session at any instant: the session is a single entry in the
// tracker's per-user map, claimed and released under the tracker's lock, and
// claiming it stops that user's previous session before the new tick loop
// starts. Sessions of different users never touch each other.
type FocusTracker struct {
	logs     FocusLogStore
	settings SettingsStore
	log      *log.Logger

	clock   func() time.Time
	cadence time.Duration

	mu         sync.Mutex
	running    map[uint]*slotTimer
	celebrated map[celebrationKey]bool
}

type celebrationKey struct {
	userID uint
	taskID uint
	date   string
}

// slotTimer is one running focus session. Its counters are touched only by
// its own tick goroutine; the tracker lock governs which session exists.
type slotTimer struct {
	userID    uint
	date      string
	slot      int
	taskID    uint
	startedAt time.Time
	logged    int // whole minutes already written for this session
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewFocusTracker(logs FocusLogStore, settings SettingsStore, logger *log.Logger) *FocusTracker {
	return &FocusTracker{
		logs:       logs,
		settings:   settings,
		log:        logger,
		clock:      time.Now,
		cadence:    time.Second,
		running:    make(map[uint]*slotTimer),
		celebrated: make(map[celebrationKey]bool),
	}
}

// StartTimer claims the user's running session for (date, slot, task). If
// another slot's timer was running for this user it is stopped first;
// restarting the same slot resets its elapsed counter to zero.
func (t *FocusTracker) StartTimer(user *model.User, date string, slot int, taskID uint) error {
	if slot < 1 || slot > 3 {
		return fmt.Errorf("%w: slot must be 1..3", ErrInvalidInput)
	}
	if taskID == 0 {
		return fmt.Errorf("%w: timers run only against linked tasks", ErrInvalidInput)
	}
	if !dateutil.Valid(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(user.ID)

	ctx, cancel := context.WithCancel(context.Background())
	st := &slotTimer{
		userID:    user.ID,
		date:      date,
		slot:      slot,
		taskID:    taskID,
		startedAt: t.clock(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	t.running[user.ID] = st
	go t.run(ctx, st)
	return nil
}

// PauseTimer stops the slot's timer if it is the one running.
func (t *FocusTracker) PauseTimer(userID uint, date string, slot int) {
	t.StopSlot(userID, date, slot)
}

// StopSlot stops the user's running session if it is on (date, slot).
func (t *FocusTracker) StopSlot(userID uint, date string, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.running[userID]
	if st == nil || st.date != date || st.slot != slot {
		return
	}
	t.stopLocked(userID)
}

// SyncSlots stops the user's running session when a freshly written triple
// no longer links the running task to the running slot.
func (t *FocusTracker) SyncSlots(userID uint, date string, items [3]SlotContent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.running[userID]
	if st == nil || st.date != date {
		return
	}
	if taskID, ok := items[st.slot-1].TaskID(); ok && taskID == st.taskID {
		return
	}
	t.stopLocked(userID)
}

// RunningSlot reports which slot has a running timer for (user, date), or 0.
func (t *FocusTracker) RunningSlot(userID uint, date string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.running[userID]
	if st == nil || st.date != date {
		return 0
	}
	return st.slot
}

// stopLocked cancels the user's current session and waits for its tick loop
// to exit, so that user's next session never overlaps the previous one.
// Sub-minute remainders are discarded; only whole minute boundaries accrue.
func (t *FocusTracker) stopLocked(userID uint) {
	st := t.running[userID]
	if st == nil {
		return
	}
	st.cancel()
	<-st.done
	delete(t.running, userID)
}

func (t *FocusTracker) run(ctx context.Context, st *slotTimer) {
	defer close(st.done)
	ticker := time.NewTicker(t.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(st)
		}
	}
}

// tick samples elapsed wall-clock time and appends the delta of newly
// crossed whole minutes, never the cumulative total. A failed append leaves
// the logged counter untouched, so the next tick retries the same
// outstanding delta; minutes are delivered at least once, in order.
func (t *FocusTracker) tick(st *slotTimer) {
	whole := int(t.clock().Sub(st.startedAt) / time.Minute)
	if whole <= st.logged {
		return
	}
	delta := whole - st.logged

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	entry := &model.FocusLog{
		UserID:  st.userID,
		TaskID:  st.taskID,
		Date:    st.date,
		Minutes: delta,
		Source:  model.FocusSourceTimer,
	}
	if err := t.logs.Append(ctx, entry); err != nil {
		t.log.Warn("focus log append failed, retrying next tick",
			"task", st.taskID, "minutes", delta, "err", err)
		return
	}
	st.logged = whole
}

// LogManual appends a single manual entry, independent of timer state.
func (t *FocusTracker) LogManual(ctx context.Context, user *model.User, taskID uint, date string, minutes int) error {
	if taskID == 0 {
		return fmt.Errorf("%w: task required", ErrInvalidInput)
	}
	if minutes <= 0 {
		return fmt.Errorf("%w: minutes must be positive", ErrInvalidInput)
	}
	if !dateutil.Valid(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return t.logs.Append(ctx, &model.FocusLog{
		UserID:  user.ID,
		TaskID:  taskID,
		Date:    date,
		Minutes: minutes,
		Source:  model.FocusSourceManual,
	})
}

// FocusProgress is the derived, read-only view of accrued minutes for one
// date, evaluated against the focus-done rule.
type FocusProgress struct {
	Minutes       map[uint]int
	TargetMinutes int
	RuleEnabled   bool
}

// Complete reports whether the task has reached the configured target. It
// never marks the task done; presentation decides what to show.
func (p FocusProgress) Complete(taskID uint) bool {
	return p.RuleEnabled && p.TargetMinutes > 0 && p.Minutes[taskID] >= p.TargetMinutes
}

// Progress sums the focus log for (user, date) and pairs it with the user's
// focus-done settings.
func (t *FocusTracker) Progress(ctx context.Context, user *model.User, date string) (*FocusProgress, error) {
	if !dateutil.Valid(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	sums, err := t.logs.SumForDate(ctx, user.ID, date)
	if err != nil {
		return nil, err
	}
	settings, err := t.settings.GetOrDefault(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &FocusProgress{
		Minutes:       sums,
		TargetMinutes: settings.FocusTargetMinutes,
		RuleEnabled:   settings.FocusDoneEnabled,
	}, nil
}

// CelebrateOnce reports true exactly once per (user, task, date): on the
// transition into the focus-complete state, and never again while the task
// stays complete. Always false when the rule or celebration is disabled.
func (t *FocusTracker) CelebrateOnce(ctx context.Context, user *model.User, taskID uint, date string) (bool, error) {
	settings, err := t.settings.GetOrDefault(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if !settings.FocusDoneEnabled || !settings.CelebrateEnabled {
		return false, nil
	}

	progress, err := t.Progress(ctx, user, date)
	if err != nil {
		return false, err
	}
	if !progress.Complete(taskID) {
		return false, nil
	}

	key := celebrationKey{userID: user.ID, taskID: taskID, date: date}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.celebrated[key] {
		return false, nil
	}
	t.celebrated[key] = true
	return true, nil
}
