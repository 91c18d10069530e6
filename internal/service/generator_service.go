package service

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// GenerationStatus tags one user's outcome for a generator invocation.
type GenerationStatus string

const (
	GenSkipped       GenerationStatus = "skipped"
	GenAlreadyExists GenerationStatus = "already_exists"
	GenCreated       GenerationStatus = "created"
	GenError         GenerationStatus = "error"
)

// GenerationResult records one user's outcome.
type GenerationResult struct {
	UserID       uint
	WeekStart    string
	Status       GenerationStatus
	TasksCreated int
	Err          error
}

// GeneratorService seeds each user's week from their active template once
// per week at a fixed local wall-clock moment.
type GeneratorService struct {
	settingsRepo *repository.SettingsRepository
	weekRepo     *repository.WeekRepository
	templateRepo *repository.TemplateRepository
	taskRepo     *repository.TaskRepository
	log          *log.Logger
	triggerHour  int // local hour on Monday
}

func NewGeneratorService(settingsRepo *repository.SettingsRepository, weekRepo *repository.WeekRepository, templateRepo *repository.TemplateRepository, taskRepo *repository.TaskRepository, logger *log.Logger, triggerHour int) *GeneratorService {
	return &GeneratorService{
		settingsRepo: settingsRepo,
		weekRepo:     weekRepo,
		templateRepo: templateRepo,
		taskRepo:     taskRepo,
		log:          logger,
		triggerHour:  triggerHour,
	}
}

// RunOnce processes every profile once. Safe to invoke as often as the
// caller likes: the Monday-hour gate plus the unique week row make a repeat
// invocation a no-op. One user's failure never aborts the others.
func (s *GeneratorService) RunOnce(ctx context.Context, nowUTC time.Time) ([]GenerationResult, error) {
	profiles, err := s.settingsRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]GenerationResult, 0, len(profiles))
	for _, prof := range profiles {
		res := s.generateForUser(ctx, prof, nowUTC)
		if res.Err != nil {
			s.log.Error("weekly generation failed", "user", prof.UserID, "err", res.Err)
		} else if res.Status == GenCreated {
			s.log.Info("week generated", "user", prof.UserID, "week_start", res.WeekStart, "tasks", res.TasksCreated)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *GeneratorService) generateForUser(ctx context.Context, prof model.Settings, nowUTC time.Time) GenerationResult {
	res := GenerationResult{UserID: prof.UserID}

	local := nowUTC.In(locationOrDefault(prof.Timezone))
	if local.Weekday() != time.Monday || local.Hour() != s.triggerHour {
		res.Status = GenSkipped
		return res
	}
	res.WeekStart = dateutil.Format(dateutil.MondayOf(local))

	if _, err := s.weekRepo.Find(ctx, prof.UserID, res.WeekStart); err == nil {
		res.Status = GenAlreadyExists
		return res
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		res.Status = GenError
		res.Err = err
		return res
	}

	var templateID *uint
	tmpl, err := s.templateRepo.FindActive(ctx, prof.UserID)
	switch {
	case err == nil:
		templateID = &tmpl.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		tmpl = nil
	default:
		res.Status = GenError
		res.Err = err
		return res
	}

	week, created, err := s.weekRepo.GetOrCreate(ctx, prof.UserID, res.WeekStart, templateID)
	if err != nil {
		res.Status = GenError
		res.Err = err
		return res
	}
	if !created {
		// Lost the race to a near-simultaneous invocation.
		res.Status = GenAlreadyExists
		return res
	}

	res.Status = GenCreated
	if tmpl == nil {
		return res
	}

	items, err := s.templateRepo.ListItems(ctx, tmpl.ID)
	if err != nil {
		res.Status = GenError
		res.Err = err
		return res
	}
	dates, err := dateutil.WeekDates(res.WeekStart)
	if err != nil {
		res.Status = GenError
		res.Err = err
		return res
	}

	tasks := make([]model.Task, 0, len(dates)*len(items))
	for _, due := range dates {
		for _, item := range items {
			dd := due
			itemID := item.ID
			tasks = append(tasks, model.Task{
				UserID:         prof.UserID,
				WeekID:         week.ID,
				Category:       item.Category,
				Title:          item.Title,
				DueDate:        &dd,
				LowEnergy:      item.LowEnergy,
				TemplateItemID: &itemID,
			})
		}
	}
	if err := s.taskRepo.CreateBatch(ctx, tasks); err != nil {
		res.Status = GenError
		res.Err = err
		return res
	}
	res.TasksCreated = len(tasks)
	return res
}

func locationOrDefault(tz string) *time.Location {
	if tz == "" {
		tz = model.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, err = time.LoadLocation(model.DefaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}
