package model

import "time"

// Task represents a single item in the planner. Due dates are calendar dates
// stored as YYYY-MM-DD strings; a nil due date means the task is unscheduled.
type Task struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         uint    `gorm:"index"`
	WeekID         uint    `gorm:"index"`
	Category       string  `gorm:"index"`
	Title          string
	DueDate        *string `gorm:"index"`
	Done           bool    `gorm:"default:false"`
	LowEnergy      bool    `gorm:"default:true"`
	TemplateItemID *uint   `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
