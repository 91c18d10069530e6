package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focus-planner/internal/model"
)

// FocusSlotRepository persists the Top-3 rows, keyed by (user, date, slot).
type FocusSlotRepository struct {
	db *gorm.DB
}

func NewFocusSlotRepository(db *gorm.DB) *FocusSlotRepository {
	return &FocusSlotRepository{db: db}
}

// UpsertSlots writes the full triple for (user, date), overwriting whatever
// each row held. Empty slots are written with null content rather than
// deleted.
func (r *FocusSlotRepository) UpsertSlots(ctx context.Context, userID uint, date string, rows []model.FocusSlot) error {
	for i := range rows {
		rows[i].UserID = userID
		rows[i].Date = date
		rows[i].Slot = i + 1
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"task_id", "free_text", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert focus slots: %w", err)
	}
	return nil
}

// ListSlots returns whatever rows exist for (user, date), ordered by slot.
// Callers must treat missing rows as empty slots.
func (r *FocusSlotRepository) ListSlots(ctx context.Context, userID uint, date string) ([]model.FocusSlot, error) {
	var slots []model.FocusSlot
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("slot ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list focus slots: %w", err)
	}
	return slots, nil
}
