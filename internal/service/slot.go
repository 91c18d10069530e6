package service

import "focus-planner/internal/model"

// SlotState enumerates what a Top-3 slot currently holds.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotLinked
	SlotFreeText
)

// SlotContent is a tagged variant over the three slot states. The zero value
// is an empty slot. A slot never carries both a task link and free text:
// editing the text of a linked slot discards the link rather than keeping
// stale linkage.
type SlotContent struct {
	state  SlotState
	taskID uint
	title  string
}

func EmptySlot() SlotContent {
	return SlotContent{}
}

func LinkedSlot(taskID uint, title string) SlotContent {
	if taskID == 0 {
		return EmptySlot()
	}
	return SlotContent{state: SlotLinked, taskID: taskID, title: title}
}

func FreeTextSlot(text string) SlotContent {
	if text == "" {
		return EmptySlot()
	}
	return SlotContent{state: SlotFreeText, title: text}
}

func (c SlotContent) State() SlotState { return c.state }

// TaskID returns the linked task and whether the slot is linked at all.
func (c SlotContent) TaskID() (uint, bool) {
	return c.taskID, c.state == SlotLinked
}

// Title is the visible text: the linked task's title or the free text.
func (c SlotContent) Title() string { return c.title }

// EditText overwrites the visible text, converting a linked slot to free
// text. Empty text clears the slot.
func (c SlotContent) EditText(text string) SlotContent {
	return FreeTextSlot(text)
}

// Link points the slot at a task, replacing whatever it held.
func (c SlotContent) Link(taskID uint, title string) SlotContent {
	return LinkedSlot(taskID, title)
}

// Clear empties the slot.
func (c SlotContent) Clear() SlotContent {
	return EmptySlot()
}

// row converts the content to its persisted shape. Empty slots persist with
// null content; the store treats an absent row the same way.
func (c SlotContent) row() model.FocusSlot {
	var row model.FocusSlot
	switch c.state {
	case SlotLinked:
		id := c.taskID
		row.TaskID = &id
	case SlotFreeText:
		text := c.title
		row.FreeText = &text
	}
	return row
}

// resolveSlots rebuilds the triple from persisted rows, resolving linked
// titles against the task set. Absent rows and rows outside slots 1..3 read
// as empty.
func resolveSlots(rows []model.FocusSlot, tasks []model.Task) [3]SlotContent {
	byID := make(map[uint]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	var focus [3]SlotContent
	for _, row := range rows {
		if row.Slot < 1 || row.Slot > 3 {
			continue
		}
		focus[row.Slot-1] = slotContentFromRow(row, byID)
	}
	return focus
}

// slotContentFromRow rebuilds the variant from a persisted row, resolving a
// linked slot's title from the task set. A link to a task that no longer
// exists reads as empty.
func slotContentFromRow(row model.FocusSlot, tasksByID map[uint]model.Task) SlotContent {
	if row.TaskID != nil && *row.TaskID != 0 {
		task, ok := tasksByID[*row.TaskID]
		if !ok {
			return EmptySlot()
		}
		return LinkedSlot(task.ID, task.Title)
	}
	if row.FreeText != nil {
		return FreeTextSlot(*row.FreeText)
	}
	return EmptySlot()
}
