package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

// FocusLogRepository is the append-only ledger of focused minutes.
type FocusLogRepository struct {
	db *gorm.DB
}

func NewFocusLogRepository(db *gorm.DB) *FocusLogRepository {
	return &FocusLogRepository{db: db}
}

func (r *FocusLogRepository) Append(ctx context.Context, entry *model.FocusLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append focus log: %w", err)
	}
	return nil
}

// SumForDate returns accrued minutes per task for (user, date).
func (r *FocusLogRepository) SumForDate(ctx context.Context, userID uint, date string) (map[uint]int, error) {
	type row struct {
		TaskID  uint
		Minutes int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.FocusLog{}).
		Select("task_id, SUM(minutes) AS minutes").
		Where("user_id = ? AND date = ?", userID, date).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum focus log: %w", err)
	}

	sums := make(map[uint]int, len(rows))
	for _, r := range rows {
		sums[r.TaskID] = r.Minutes
	}
	return sums, nil
}
