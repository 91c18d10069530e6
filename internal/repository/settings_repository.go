package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focus-planner/internal/model"
)

// SettingsRepository stores per-user planner preferences, one row per user.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrDefault returns the user's settings row, or the defaults when the row
// does not exist yet. Defaults are applied here once, not at use sites.
func (r *SettingsRepository) GetOrDefault(ctx context.Context, userID uint) (model.Settings, error) {
	var settings model.Settings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	switch {
	case err == nil:
		return settings, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultSettings(userID), nil
	default:
		return model.Settings{}, fmt.Errorf("find settings: %w", err)
	}
}

// Upsert writes the full settings row for the user.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.Settings) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"focus_done_enabled", "focus_target_minutes", "celebrate_enabled",
			"auto_hide_carry_over", "timezone",
			"morning_reminder", "midday_reminder", "evening_reminder",
			"updated_at",
		}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// ListAll returns every stored profile; the generator and reminder dispatch
// iterate these.
func (r *SettingsRepository) ListAll(ctx context.Context) ([]model.Settings, error) {
	var all []model.Settings
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return all, nil
}
