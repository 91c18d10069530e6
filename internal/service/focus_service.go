package service

import (
	"context"
	"fmt"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// slotTimers is the tracker facet the slot manager calls so that a timer
// never keeps running against a task no longer in its slot.
type slotTimers interface {
	SyncSlots(userID uint, date string, items [3]SlotContent)
	StopSlot(userID uint, date string, slot int)
}

// FocusService manages the three ordered Top-3 slots for a (user, date).
type FocusService struct {
	taskRepo *repository.TaskRepository
	slotRepo *repository.FocusSlotRepository
	bulk     *BulkService
	timers   slotTimers
}

func NewFocusService(taskRepo *repository.TaskRepository, slotRepo *repository.FocusSlotRepository, bulk *BulkService, timers slotTimers) *FocusService {
	return &FocusService{taskRepo: taskRepo, slotRepo: slotRepo, bulk: bulk, timers: timers}
}

// SetFocus persists the full triple, upserting one row per slot. Writing a
// triple that drops or relinks a running slot's task stops that timer.
func (s *FocusService) SetFocus(ctx context.Context, user *model.User, date string, items [3]SlotContent) error {
	if !dateutil.Valid(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	rows := make([]model.FocusSlot, 3)
	for i, item := range items {
		rows[i] = item.row()
	}
	if err := s.slotRepo.UpsertSlots(ctx, user.ID, date, rows); err != nil {
		return err
	}

	s.timers.SyncSlots(user.ID, date, items)
	return nil
}

// Slots reads the current triple, resolving linked titles against the task
// set. Absent rows and null-content rows both read as empty.
func (s *FocusService) Slots(ctx context.Context, user *model.User, date string) ([3]SlotContent, error) {
	var focus [3]SlotContent
	if !dateutil.Valid(date) {
		return focus, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	rows, err := s.slotRepo.ListSlots(ctx, user.ID, date)
	if err != nil {
		return focus, err
	}
	if len(rows) == 0 {
		return focus, nil
	}

	tasks, err := s.taskRepo.List(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return focus, err
	}
	return resolveSlots(rows, tasks), nil
}

// MarkDone completes a slot. A linked slot marks the underlying task done
// and stays populated so the next read still shows it; a free-text slot is
// cleared outright; an empty slot is a no-op.
func (s *FocusService) MarkDone(ctx context.Context, user *model.User, date string, slot int) error {
	items, err := s.slotTriple(ctx, user, date, slot)
	if err != nil {
		return err
	}

	content := items[slot-1]
	switch content.State() {
	case SlotLinked:
		taskID, _ := content.TaskID()
		if _, err := s.taskRepo.UpdateFields(ctx, user.ID, []uint{taskID}, map[string]interface{}{"done": true}); err != nil {
			return err
		}
		s.timers.StopSlot(user.ID, date, slot)
		return nil
	case SlotFreeText:
		items[slot-1] = content.Clear()
		return s.SetFocus(ctx, user, date, items)
	default:
		return nil
	}
}

// PromoteToBacklog moves a linked slot's task off the Top-3 while keeping it
// scheduled for the viewed date under its existing category, then clears the
// slot.
func (s *FocusService) PromoteToBacklog(ctx context.Context, user *model.User, date string, slot int) error {
	items, err := s.slotTriple(ctx, user, date, slot)
	if err != nil {
		return err
	}

	taskID, ok := items[slot-1].TaskID()
	if !ok {
		return fmt.Errorf("%w: slot %d is not linked to a task", ErrInvalidInput, slot)
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}

	if _, err := s.bulk.Apply(ctx, user, []uint{taskID}, OpPromote, BulkParams{Category: task.Category, Date: date}); err != nil {
		return err
	}

	items[slot-1] = items[slot-1].Clear()
	return s.SetFocus(ctx, user, date, items)
}

// DemoteToCarryOver snoozes a linked slot's task to the day before the
// viewed date, forcing it to read as overdue, then clears the slot.
func (s *FocusService) DemoteToCarryOver(ctx context.Context, user *model.User, date string, slot int) error {
	items, err := s.slotTriple(ctx, user, date, slot)
	if err != nil {
		return err
	}

	taskID, ok := items[slot-1].TaskID()
	if !ok {
		return fmt.Errorf("%w: slot %d is not linked to a task", ErrInvalidInput, slot)
	}

	yesterday, err := dateutil.AddDays(date, -1)
	if err != nil {
		return err
	}
	if _, err := s.bulk.Apply(ctx, user, []uint{taskID}, OpSnooze, BulkParams{Date: yesterday}); err != nil {
		return err
	}

	items[slot-1] = items[slot-1].Clear()
	return s.SetFocus(ctx, user, date, items)
}

// Candidates lists the tasks offered when filling a slot: due on the viewed
// date, plus overdue incomplete tasks strictly before it. Scoped to the date
// being edited so Top-3 editing works when browsing past or future days.
func (s *FocusService) Candidates(ctx context.Context, user *model.User, date string) ([]model.Task, error) {
	if !dateutil.Valid(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	tasks, err := s.taskRepo.List(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	planned, carryOver, _ := Partition(tasks, date)
	return append(planned, carryOver...), nil
}

func (s *FocusService) slotTriple(ctx context.Context, user *model.User, date string, slot int) ([3]SlotContent, error) {
	var zero [3]SlotContent
	if slot < 1 || slot > 3 {
		return zero, fmt.Errorf("%w: slot must be 1..3", ErrInvalidInput)
	}
	return s.Slots(ctx, user, date)
}
