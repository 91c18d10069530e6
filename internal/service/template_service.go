package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// TemplateService manages the items of a user's active week template.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
}

func NewTemplateService(templateRepo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

// ListActiveItems returns the active template's items in sort order, or an
// empty list when no template is active.
func (s *TemplateService) ListActiveItems(ctx context.Context, user *model.User) ([]model.TemplateItem, error) {
	tmpl, err := s.templateRepo.FindActive(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.templateRepo.ListItems(ctx, tmpl.ID)
}

// AddItem appends an item to the active template, lazily creating the
// template on the first add.
func (s *TemplateService) AddItem(ctx context.Context, user *model.User, category, title string, lowEnergy bool) (*model.TemplateItem, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	tmpl, err := s.templateRepo.FindActive(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tmpl = &model.WeekTemplate{UserID: user.ID, Name: "My week", IsActive: true}
		if err := s.templateRepo.Create(ctx, tmpl); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	item := model.TemplateItem{
		TemplateID: tmpl.ID,
		Category:   category,
		Title:      title,
		LowEnergy:  lowEnergy,
	}
	if err := s.templateRepo.AddItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes an item from the active template.
func (s *TemplateService) RemoveItem(ctx context.Context, user *model.User, itemID uint) error {
	tmpl, err := s.templateRepo.FindActive(ctx, user.ID)
	if err != nil {
		return err
	}
	return s.templateRepo.DeleteItem(ctx, tmpl.ID, itemID)
}
