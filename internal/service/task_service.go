package service

import (
	"context"
	"fmt"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// TaskInput represents data required to create a task directly.
type TaskInput struct {
	Title     string
	Category  string
	Date      string
	LowEnergy *bool
}

// TaskService wraps single-task business logic: direct adds, done toggles
// and day rollover. Bulk selections go through BulkService instead.
type TaskService struct {
	taskRepo *repository.TaskRepository
	weekRepo *repository.WeekRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, weekRepo *repository.WeekRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, weekRepo: weekRepo}
}

// CreateTask adds one task, lazily creating the Monday-aligned week row the
// first time a task lands in that week.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !model.ValidCategory(input.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if !dateutil.Valid(input.Date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	weekStart, err := dateutil.WeekStart(input.Date)
	if err != nil {
		return nil, err
	}
	week, _, err := s.weekRepo.GetOrCreate(ctx, user.ID, weekStart, nil)
	if err != nil {
		return nil, err
	}

	lowEnergy := true
	if input.LowEnergy != nil {
		lowEnergy = *input.LowEnergy
	}
	due := input.Date
	task := model.Task{
		UserID:    user.ID,
		WeekID:    week.ID,
		Category:  input.Category,
		Title:     input.Title,
		DueDate:   &due,
		LowEnergy: lowEnergy,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetDone flips a single task's done flag.
func (s *TaskService) SetDone(ctx context.Context, user *model.User, taskID uint, done bool) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.taskRepo.UpdateFields(ctx, user.ID, []uint{taskID}, map[string]interface{}{"done": done}); err != nil {
		return nil, err
	}
	task.Done = done
	return task, nil
}

// RolloverDay moves every incomplete task due exactly on date to the next
// day and reports how many moved.
func (s *TaskService) RolloverDay(ctx context.Context, user *model.User, date string) (int64, error) {
	if !dateutil.Valid(date) {
		return 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	tomorrow, err := dateutil.AddDays(date, 1)
	if err != nil {
		return 0, err
	}
	return s.taskRepo.ShiftDueDate(ctx, user.ID, date, tomorrow)
}
