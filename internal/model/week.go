package model

import "time"

// Week is a Monday-aligned planning week. The unique index on
// (user_id, week_start) is what keeps racing generator invocations from
// creating duplicates; rows are never updated after creation.
type Week struct {
	ID                  uint   `gorm:"primaryKey"`
	UserID              uint   `gorm:"index:idx_user_week_start,unique"`
	WeekStart           string `gorm:"index:idx_user_week_start,unique"`
	CreatedFromTemplate *uint
	CreatedAt           time.Time
}
