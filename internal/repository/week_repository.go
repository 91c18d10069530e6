package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focus-planner/internal/model"
)

// WeekRepository manages Monday-aligned week rows.
type WeekRepository struct {
	db *gorm.DB
}

func NewWeekRepository(db *gorm.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

// GetOrCreate returns the week row for (user, weekStart), creating it if
// missing. The insert tolerates the unique (user_id, week_start) index, so
// two racing callers converge on one row; the bool reports whether this call
// created it.
func (r *WeekRepository) GetOrCreate(ctx context.Context, userID uint, weekStart string, templateID *uint) (*model.Week, bool, error) {
	week := model.Week{UserID: userID, WeekStart: weekStart, CreatedFromTemplate: templateID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&week)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create week: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &week, true, nil
	}

	existing, err := r.Find(ctx, userID, weekStart)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *WeekRepository) Find(ctx context.Context, userID uint, weekStart string) (*model.Week, error) {
	var week model.Week
	if err := r.db.WithContext(ctx).Where("user_id = ? AND week_start = ?", userID, weekStart).First(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}
