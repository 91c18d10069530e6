package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

func newGenerator(t *testing.T, db *gorm.DB) *GeneratorService {
	t.Helper()
	return NewGeneratorService(
		repository.NewSettingsRepository(db),
		repository.NewWeekRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewTaskRepository(db),
		testLogger(),
		4,
	)
}

func seedProfile(t *testing.T, db *gorm.DB, userID uint, tz string) {
	t.Helper()
	settings := model.DefaultSettings(userID)
	settings.Timezone = tz
	if err := repository.NewSettingsRepository(db).Upsert(context.Background(), &settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
}

func seedTemplate(t *testing.T, db *gorm.DB, userID uint, items ...model.TemplateItem) *model.WeekTemplate {
	t.Helper()
	tmpl := model.WeekTemplate{UserID: userID, Name: "standard week", IsActive: true}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	repo := repository.NewTemplateRepository(db)
	for i := range items {
		items[i].TemplateID = tmpl.ID
		if err := repo.AddItem(context.Background(), &items[i]); err != nil {
			t.Fatalf("seed template item: %v", err)
		}
	}
	return &tmpl
}

// Monday 2024-01-08 09:00 UTC is 04:00 in America/New_York.
var mondayTrigger = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

func TestGeneratorCreatesWeekFromTemplate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "America/New_York")
	seedTemplate(t, db, user.ID,
		model.TemplateItem{Category: model.CategoryCareer, Title: "Deep work block", LowEnergy: false},
		model.TemplateItem{Category: model.CategoryHealth, Title: "Stretch", LowEnergy: true},
	)

	gen := newGenerator(t, db)
	results, err := gen.RunOnce(context.Background(), mondayTrigger)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]
	if res.Status != GenCreated {
		t.Fatalf("status = %s (err %v), want created", res.Status, res.Err)
	}
	if res.WeekStart != "2024-01-08" {
		t.Errorf("week start = %s, want 2024-01-08", res.WeekStart)
	}
	if res.TasksCreated != 14 {
		t.Errorf("tasks created = %d, want 2 items x 7 days = 14", res.TasksCreated)
	}

	var tasks []model.Task
	if err := db.Where("user_id = ?", user.ID).Find(&tasks).Error; err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 14 {
		t.Fatalf("stored tasks = %d, want 14", len(tasks))
	}
	perDay := make(map[string]int)
	for _, task := range tasks {
		if task.DueDate == nil {
			t.Fatal("generated task has no due date")
		}
		perDay[*task.DueDate]++
		if task.TemplateItemID == nil {
			t.Error("generated task lost its template item link")
		}
		if task.WeekID == 0 {
			t.Error("generated task not attached to the week")
		}
	}
	if len(perDay) != 7 {
		t.Errorf("distinct due dates = %d, want 7", len(perDay))
	}
	for date, n := range perDay {
		if n != 2 {
			t.Errorf("date %s got %d tasks, want 2", date, n)
		}
	}
}

func TestGeneratorIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "America/New_York")
	seedTemplate(t, db, user.ID,
		model.TemplateItem{Category: model.CategoryLife, Title: "Tidy desk"},
	)

	gen := newGenerator(t, db)
	ctx := context.Background()
	if _, err := gen.RunOnce(ctx, mondayTrigger); err != nil {
		t.Fatal(err)
	}

	// Re-running within the same trigger hour adds nothing.
	results, err := gen.RunOnce(ctx, mondayTrigger.Add(10*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != GenAlreadyExists {
		t.Errorf("second run status = %s, want already_exists", results[0].Status)
	}

	var taskCount, weekCount int64
	db.Model(&model.Task{}).Where("user_id = ?", user.ID).Count(&taskCount)
	db.Model(&model.Week{}).Where("user_id = ?", user.ID).Count(&weekCount)
	if taskCount != 7 {
		t.Errorf("tasks = %d after rerun, want 7", taskCount)
	}
	if weekCount != 1 {
		t.Errorf("weeks = %d after rerun, want 1", weekCount)
	}
}

func TestGeneratorSkipsOutsideTriggerWindow(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "America/New_York")

	gen := newGenerator(t, db)
	ctx := context.Background()

	tests := []struct {
		name string
		now  time.Time
	}{
		{"monday wrong hour", mondayTrigger.Add(3 * time.Hour)},
		{"tuesday trigger hour", mondayTrigger.Add(24 * time.Hour)},
		{"sunday before", mondayTrigger.Add(-24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := gen.RunOnce(ctx, tt.now)
			if err != nil {
				t.Fatal(err)
			}
			if results[0].Status != GenSkipped {
				t.Errorf("status = %s, want skipped", results[0].Status)
			}
		})
	}

	var weekCount int64
	db.Model(&model.Week{}).Where("user_id = ?", user.ID).Count(&weekCount)
	if weekCount != 0 {
		t.Errorf("weeks = %d, want 0", weekCount)
	}
}

func TestGeneratorHonorsProfileTimezone(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "Asia/Tokyo")

	gen := newGenerator(t, db)
	ctx := context.Background()

	// 09:00 UTC Monday is 18:00 Tokyo, outside the window.
	results, err := gen.RunOnce(ctx, mondayTrigger)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != GenSkipped {
		t.Errorf("status at Tokyo 18:00 = %s, want skipped", results[0].Status)
	}

	// Sunday 19:00 UTC is Monday 04:00 Tokyo.
	tokyoTrigger := time.Date(2024, 1, 7, 19, 0, 0, 0, time.UTC)
	results, err = gen.RunOnce(ctx, tokyoTrigger)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != GenCreated {
		t.Fatalf("status at Tokyo 04:00 = %s (err %v), want created", results[0].Status, results[0].Err)
	}
	if results[0].WeekStart != "2024-01-08" {
		t.Errorf("week start = %s, want 2024-01-08 local Monday", results[0].WeekStart)
	}
}

func TestGeneratorWithoutTemplateCreatesBareWeek(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "America/New_York")

	gen := newGenerator(t, db)
	results, err := gen.RunOnce(context.Background(), mondayTrigger)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Status != GenCreated {
		t.Fatalf("status = %s (err %v), want created", res.Status, res.Err)
	}
	if res.TasksCreated != 0 {
		t.Errorf("tasks created = %d, want 0 without a template", res.TasksCreated)
	}

	var week model.Week
	if err := db.Where("user_id = ?", user.ID).First(&week).Error; err != nil {
		t.Fatalf("bare week not stored: %v", err)
	}
	if week.CreatedFromTemplate != nil {
		t.Error("bare week should carry no template link")
	}
}

func TestGeneratorFallsBackOnUnknownTimezone(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedProfile(t, db, user.ID, "Mars/Olympus")

	gen := newGenerator(t, db)
	// The fallback zone is America/New_York, where this is Monday 04:00.
	results, err := gen.RunOnce(context.Background(), mondayTrigger)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != GenCreated {
		t.Errorf("status = %s, want created via fallback zone", results[0].Status)
	}
}

func TestGeneratorIsolatesPerUserOutcomes(t *testing.T) {
	db := newTestDB(t)
	eastern := seedUser(t, db)
	tokyo := seedUser(t, db)
	seedProfile(t, db, eastern.ID, "America/New_York")
	seedProfile(t, db, tokyo.ID, "Asia/Tokyo")

	gen := newGenerator(t, db)
	results, err := gen.RunOnce(context.Background(), mondayTrigger)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	byUser := make(map[uint]GenerationStatus)
	for _, res := range results {
		byUser[res.UserID] = res.Status
	}
	if byUser[eastern.ID] != GenCreated {
		t.Errorf("eastern user status = %s, want created", byUser[eastern.ID])
	}
	if byUser[tokyo.ID] != GenSkipped {
		t.Errorf("tokyo user status = %s, want skipped", byUser[tokyo.ID])
	}
}
