package service

import (
	"context"
	"fmt"
	"sort"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// View selects how a day read is bucketed.
type View string

const (
	// ViewPlanned buckets only what is relevant to the viewed date.
	ViewPlanned View = "planned"
	// ViewAll buckets the full incomplete set across all dates.
	ViewAll View = "all"
)

// DayData is the read model served to the presentation layer for one
// (date, view) pair.
type DayData struct {
	Date         string
	View         View
	Focus        [3]SlotContent
	PlannedToday []model.Task
	CarryOver    []model.Task
	Snoozed      []model.Task
	Categories   map[string][]model.Task
}

// BucketService partitions a user's task set around a reference date. Reads
// only; every mutation goes through the other services and a fresh DayView
// recomputes the buckets.
type BucketService struct {
	taskRepo *repository.TaskRepository
	slotRepo *repository.FocusSlotRepository
}

func NewBucketService(taskRepo *repository.TaskRepository, slotRepo *repository.FocusSlotRepository) *BucketService {
	return &BucketService{taskRepo: taskRepo, slotRepo: slotRepo}
}

// DayView computes the bucketed read model for (user, date).
func (s *BucketService) DayView(ctx context.Context, user *model.User, date string, view View) (*DayData, error) {
	if !dateutil.Valid(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if view != ViewPlanned && view != ViewAll {
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidInput, view)
	}

	tasks, err := s.taskRepo.List(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	data := &DayData{Date: date, View: view}
	if view == ViewPlanned {
		data.PlannedToday, data.CarryOver, data.Snoozed = Partition(tasks, date)
		data.Categories = groupByCategory(data.PlannedToday)
	} else {
		// All view: buckets and category groups cover the incomplete set
		// only, with unscheduled tasks appearing in the groups.
		var incomplete []model.Task
		for _, t := range tasks {
			if !t.Done {
				incomplete = append(incomplete, t)
			}
		}
		data.PlannedToday, data.CarryOver, data.Snoozed = Partition(incomplete, date)
		data.Categories = groupByCategory(incomplete)
	}

	focus, err := s.focusTriple(ctx, user.ID, date, tasks)
	if err != nil {
		return nil, err
	}
	data.Focus = focus

	return data, nil
}

// Partition splits a task set around a reference date:
// planned = due exactly on date, carry-over = overdue and incomplete,
// snoozed = due later and incomplete. Tasks with no due date land in none of
// the buckets. The three buckets are pairwise disjoint by construction.
func Partition(tasks []model.Task, date string) (planned, carryOver, snoozed []model.Task) {
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		switch {
		case due == date:
			planned = append(planned, t)
		case due < date && !t.Done:
			carryOver = append(carryOver, t)
		case due > date && !t.Done:
			snoozed = append(snoozed, t)
		}
	}

	sort.SliceStable(planned, func(i, j int) bool {
		return planned[i].CreatedAt.Before(planned[j].CreatedAt)
	})
	sortByDueThenCreated(carryOver)
	sortByDueThenCreated(snoozed)
	return planned, carryOver, snoozed
}

func sortByDueThenCreated(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if *tasks[i].DueDate != *tasks[j].DueDate {
			return *tasks[i].DueDate < *tasks[j].DueDate
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

func groupByCategory(tasks []model.Task) map[string][]model.Task {
	groups := make(map[string][]model.Task, len(model.Categories))
	for _, c := range model.Categories {
		groups[c] = nil
	}
	for _, t := range tasks {
		groups[t.Category] = append(groups[t.Category], t)
	}
	return groups
}

func (s *BucketService) focusTriple(ctx context.Context, userID uint, date string, tasks []model.Task) ([3]SlotContent, error) {
	rows, err := s.slotRepo.ListSlots(ctx, userID, date)
	if err != nil {
		return [3]SlotContent{}, err
	}
	return resolveSlots(rows, tasks), nil
}
