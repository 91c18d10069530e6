package model

import "time"

// FocusSlot is one of the three daily commitment rows, upserted by
// (user, date, slot). A row with neither task_id nor free_text is an empty
// slot; readers must treat a missing row the same way.
type FocusSlot struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"index:idx_user_date_slot,unique"`
	Date      string  `gorm:"index:idx_user_date_slot,unique"`
	Slot      int     `gorm:"index:idx_user_date_slot,unique"`
	TaskID    *uint
	FreeText  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Focus log sources.
const (
	FocusSourceTimer  = "timer"
	FocusSourceManual = "manual"
)

// FocusLog is an append-only ledger of focused minutes. Multiple rows per
// (task, date) are summed; rows are never updated or deleted.
type FocusLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	TaskID    uint   `gorm:"index"`
	Date      string `gorm:"index"`
	Minutes   int
	Source    string
	CreatedAt time.Time
}
