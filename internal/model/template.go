package model

import "time"

// WeekTemplate is a reusable set of items the generator expands into a week
// of tasks. At most one template per user is active at a time.
type WeekTemplate struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Name      string
	IsActive  bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []TemplateItem `gorm:"foreignKey:TemplateID"`
}

// TemplateItem is one line of a template. Read-only from the scheduling
// engine's perspective.
type TemplateItem struct {
	ID         uint `gorm:"primaryKey"`
	TemplateID uint `gorm:"index"`
	Category   string
	Title      string
	LowEnergy  bool `gorm:"default:true"`
	SortIndex  int
	CreatedAt  time.Time
}
