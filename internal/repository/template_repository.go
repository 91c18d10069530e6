package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

// TemplateRepository reads week templates and manages their items.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindActive returns the user's active template, or gorm.ErrRecordNotFound
// when none is active.
func (r *TemplateRepository) FindActive(ctx context.Context, userID uint) (*model.WeekTemplate, error) {
	var tmpl model.WeekTemplate
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).First(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *TemplateRepository) Create(ctx context.Context, tmpl *model.WeekTemplate) error {
	if err := r.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// ListItems returns the template's items in sort order.
func (r *TemplateRepository) ListItems(ctx context.Context, templateID uint) ([]model.TemplateItem, error) {
	var items []model.TemplateItem
	if err := r.db.WithContext(ctx).Where("template_id = ?", templateID).
		Order("sort_index ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	return items, nil
}

// AddItem appends an item at the end of the template's sort order.
func (r *TemplateRepository) AddItem(ctx context.Context, item *model.TemplateItem) error {
	var maxIndex int
	err := r.db.WithContext(ctx).Model(&model.TemplateItem{}).
		Where("template_id = ?", item.TemplateID).
		Select("COALESCE(MAX(sort_index), -1)").Scan(&maxIndex).Error
	if err != nil {
		return fmt.Errorf("next sort index: %w", err)
	}
	item.SortIndex = maxIndex + 1
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create template item: %w", err)
	}
	return nil
}

func (r *TemplateRepository) DeleteItem(ctx context.Context, templateID, itemID uint) error {
	if err := r.db.WithContext(ctx).Where("template_id = ? AND id = ?", templateID, itemID).
		Delete(&model.TemplateItem{}).Error; err != nil {
		return fmt.Errorf("delete template item: %w", err)
	}
	return nil
}
