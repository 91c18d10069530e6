package service

import (
	"context"
	"fmt"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// BulkOp tags one of the four bulk mutations.
type BulkOp string

const (
	OpPromote  BulkOp = "promote"
	OpSnooze   BulkOp = "snooze"
	OpDelete   BulkOp = "delete"
	OpComplete BulkOp = "complete"
)

// BulkParams carries operation-specific parameters; unused fields are
// ignored by the other operations.
type BulkParams struct {
	Category string
	Date     string
}

// BulkResult reports how many rows the store touched.
type BulkResult struct {
	Op       BulkOp
	Affected int64
}

// BulkService applies one operation to a selection of tasks. Each operation
// is a single multi-row store statement, so a call either applies to the
// whole selection or fails without partial effect.
type BulkService struct {
	taskRepo *repository.TaskRepository
}

func NewBulkService(taskRepo *repository.TaskRepository) *BulkService {
	return &BulkService{taskRepo: taskRepo}
}

func (s *BulkService) Apply(ctx context.Context, user *model.User, ids []uint, op BulkOp, params BulkParams) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids required", ErrInvalidInput)
	}

	var (
		affected int64
		err      error
	)
	switch op {
	case OpDelete:
		affected, err = s.taskRepo.DeleteByIDs(ctx, user.ID, ids)
	case OpPromote:
		if !model.ValidCategory(params.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, params.Category)
		}
		if !dateutil.Valid(params.Date) {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		affected, err = s.taskRepo.UpdateFields(ctx, user.ID, ids, map[string]interface{}{
			"category": params.Category,
			"due_date": params.Date,
		})
	case OpSnooze:
		if !dateutil.Valid(params.Date) {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		affected, err = s.taskRepo.UpdateFields(ctx, user.ID, ids, map[string]interface{}{
			"due_date": params.Date,
		})
	case OpComplete:
		affected, err = s.taskRepo.UpdateFields(ctx, user.ID, ids, map[string]interface{}{
			"done": true,
		})
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidInput, op)
	}
	if err != nil {
		return nil, err
	}

	return &BulkResult{Op: op, Affected: affected}, nil
}
