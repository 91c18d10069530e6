package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

// TaskRepository handles CRUD and filtered queries for tasks. Every query is
// scoped by user id; a foreign id simply comes back not-found.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskFilter narrows task queries; zero-valued fields are ignored.
type TaskFilter struct {
	DueOn     string
	DueBefore string
	DueAfter  string
	Done      *bool
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateBatch inserts tasks in one statement; used by template expansion.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

// List returns the user's tasks matching the filter, ordered by due date then
// creation time ascending.
func (r *TaskRepository) List(ctx context.Context, userID uint, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.DueOn != "" {
		q = q.Where("due_date = ?", filter.DueOn)
	}
	if filter.DueBefore != "" {
		q = q.Where("due_date < ?", filter.DueBefore)
	}
	if filter.DueAfter != "" {
		q = q.Where("due_date > ?", filter.DueAfter)
	}
	if filter.Done != nil {
		q = q.Where("done = ?", *filter.Done)
	}

	var tasks []model.Task
	if err := q.Order("due_date ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateFields applies one patch to every selected task in a single
// statement, so the whole call either applies or fails.
func (r *TaskRepository) UpdateFields(ctx context.Context, userID uint, ids []uint, patch map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Updates(patch)
	if res.Error != nil {
		return 0, fmt.Errorf("update tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByIDs removes the selected tasks permanently.
func (r *TaskRepository) DeleteByIDs(ctx context.Context, userID uint, ids []uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ShiftDueDate moves every incomplete task due exactly from to the new date.
func (r *TaskRepository) ShiftDueDate(ctx context.Context, userID uint, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND due_date = ? AND done = ?", userID, from, false).
		Update("due_date", to)
	if res.Error != nil {
		return 0, fmt.Errorf("shift due date: %w", res.Error)
	}
	return res.RowsAffected, nil
}
