package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func uintp(v uint) *uint { return &v }

func TestWeekGetOrCreateConverges(t *testing.T) {
	db := newTestDB(t)
	repo := NewWeekRepository(db)
	ctx := context.Background()

	week, created, err := repo.GetOrCreate(ctx, 1, "2024-01-08", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Error("first call should create the row")
	}

	again, created, err := repo.GetOrCreate(ctx, 1, "2024-01-08", uintp(9))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call must not create")
	}
	if again.ID != week.ID {
		t.Errorf("second call got row %d, want %d", again.ID, week.ID)
	}
	if again.CreatedFromTemplate != nil {
		t.Error("existing row must keep its original template link")
	}

	var count int64
	db.Model(&model.Week{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("week rows = %d, want 1", count)
	}

	// Different user, same week start: independent row.
	if _, created, err = repo.GetOrCreate(ctx, 2, "2024-01-08", nil); err != nil || !created {
		t.Errorf("other user's week: created=%v err=%v, want fresh row", created, err)
	}
}

func TestWeekFindNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewWeekRepository(db)

	_, err := repo.Find(context.Background(), 1, "2024-01-08")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestFocusSlotUpsertOverwritesTriple(t *testing.T) {
	db := newTestDB(t)
	repo := NewFocusSlotRepository(db)
	ctx := context.Background()
	text := "review inbox"

	first := []model.FocusSlot{
		{TaskID: uintp(5)},
		{FreeText: &text},
		{},
	}
	if err := repo.UpsertSlots(ctx, 1, "2024-01-03", first); err != nil {
		t.Fatalf("UpsertSlots: %v", err)
	}

	// Rewriting the triple changes content in place instead of adding rows.
	second := []model.FocusSlot{
		{},
		{TaskID: uintp(6)},
		{TaskID: uintp(7)},
	}
	if err := repo.UpsertSlots(ctx, 1, "2024-01-03", second); err != nil {
		t.Fatal(err)
	}

	slots, err := repo.ListSlots(ctx, 1, "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 {
		t.Fatalf("rows = %d, want 3", len(slots))
	}
	if slots[0].TaskID != nil || slots[0].FreeText != nil {
		t.Error("slot 1 should be cleared")
	}
	if slots[1].TaskID == nil || *slots[1].TaskID != 6 {
		t.Errorf("slot 2 task = %v, want 6", slots[1].TaskID)
	}
	if slots[2].TaskID == nil || *slots[2].TaskID != 7 {
		t.Errorf("slot 3 task = %v, want 7", slots[2].TaskID)
	}
}

func TestFocusSlotsIsolatedByUserAndDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewFocusSlotRepository(db)
	ctx := context.Background()

	if err := repo.UpsertSlots(ctx, 1, "2024-01-03", []model.FocusSlot{{TaskID: uintp(5)}, {}, {}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertSlots(ctx, 2, "2024-01-03", []model.FocusSlot{{TaskID: uintp(8)}, {}, {}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertSlots(ctx, 1, "2024-01-04", []model.FocusSlot{{TaskID: uintp(9)}, {}, {}}); err != nil {
		t.Fatal(err)
	}

	slots, err := repo.ListSlots(ctx, 1, "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 || slots[0].TaskID == nil || *slots[0].TaskID != 5 {
		t.Errorf("user 1 date 2024-01-03 slots = %+v, want task 5 in slot 1", slots)
	}
}

func TestFocusLogSumForDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewFocusLogRepository(db)
	ctx := context.Background()

	entries := []model.FocusLog{
		{UserID: 1, TaskID: 5, Date: "2024-01-03", Minutes: 25, Source: model.FocusSourceTimer},
		{UserID: 1, TaskID: 5, Date: "2024-01-03", Minutes: 1, Source: model.FocusSourceTimer},
		{UserID: 1, TaskID: 6, Date: "2024-01-03", Minutes: 40, Source: model.FocusSourceManual},
		{UserID: 1, TaskID: 5, Date: "2024-01-04", Minutes: 99, Source: model.FocusSourceManual},
		{UserID: 2, TaskID: 5, Date: "2024-01-03", Minutes: 7, Source: model.FocusSourceTimer},
	}
	for i := range entries {
		if err := repo.Append(ctx, &entries[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	sums, err := repo.SumForDate(ctx, 1, "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	if sums[5] != 26 {
		t.Errorf("task 5 = %d minutes, want 26", sums[5])
	}
	if sums[6] != 40 {
		t.Errorf("task 6 = %d minutes, want 40", sums[6])
	}
	if len(sums) != 2 {
		t.Errorf("summed tasks = %d, want 2 (other users and dates excluded)", len(sums))
	}
}

func TestTemplateItemsKeepSortOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	tmpl := model.WeekTemplate{UserID: 1, Name: "standard", IsActive: true}
	if err := repo.Create(ctx, &tmpl); err != nil {
		t.Fatal(err)
	}

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		item := model.TemplateItem{TemplateID: tmpl.ID, Category: model.CategoryLife, Title: title}
		if err := repo.AddItem(ctx, &item); err != nil {
			t.Fatalf("add %q: %v", title, err)
		}
	}

	items, err := repo.ListItems(ctx, tmpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for i, item := range items {
		if item.Title != titles[i] {
			t.Errorf("position %d = %q, want %q", i, item.Title, titles[i])
		}
		if item.SortIndex != i {
			t.Errorf("position %d sort index = %d, want %d", i, item.SortIndex, i)
		}
	}

	if err := repo.DeleteItem(ctx, tmpl.ID, items[1].ID); err != nil {
		t.Fatal(err)
	}
	items, err = repo.ListItems(ctx, tmpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Title != "first" || items[1].Title != "third" {
		t.Errorf("after delete items = %+v, want first,third", items)
	}
}

func TestSettingsGetOrDefault(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	// No row yet: defaults come back without being persisted.
	settings, err := repo.GetOrDefault(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if settings.FocusTargetMinutes != 90 || settings.Timezone != model.DefaultTimezone {
		t.Errorf("defaults = %+v", settings)
	}
	var count int64
	db.Model(&model.Settings{}).Count(&count)
	if count != 0 {
		t.Errorf("settings rows = %d after default read, want 0", count)
	}

	settings.Timezone = "Europe/Berlin"
	settings.FocusTargetMinutes = 120
	if err := repo.Upsert(ctx, &settings); err != nil {
		t.Fatal(err)
	}
	// Upsert again with changed fields updates the single row.
	settings.FocusTargetMinutes = 60
	settings.ID = 0
	if err := repo.Upsert(ctx, &settings); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetOrDefault(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Timezone != "Europe/Berlin" || stored.FocusTargetMinutes != 60 {
		t.Errorf("stored = %+v, want Berlin at 60 minutes", stored)
	}
	db.Model(&model.Settings{}).Count(&count)
	if count != 1 {
		t.Errorf("settings rows = %d, want 1", count)
	}
}
