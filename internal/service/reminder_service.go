package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"focus-planner/internal/dateutil"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// ReminderService builds the day summaries pushed at each user's reminder
// times and served on demand by the bot.
type ReminderService struct {
	bucket       *BucketService
	tracker      *FocusTracker
	settingsRepo *repository.SettingsRepository
	userRepo     *repository.UserRepository
}

func NewReminderService(bucket *BucketService, tracker *FocusTracker, settingsRepo *repository.SettingsRepository, userRepo *repository.UserRepository) *ReminderService {
	return &ReminderService{bucket: bucket, tracker: tracker, settingsRepo: settingsRepo, userRepo: userRepo}
}

// DaySummary renders the HTML overview of one date: the Top-3 with focus
// progress, the carry-over backlog and today's planned items per category.
func (s *ReminderService) DaySummary(ctx context.Context, user *model.User, date string) (string, error) {
	data, err := s.bucket.DayView(ctx, user, date, ViewPlanned)
	if err != nil {
		return "", err
	}
	progress, err := s.tracker.Progress(ctx, user, date)
	if err != nil {
		return "", err
	}
	settings, err := s.settingsRepo.GetOrDefault(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗓 <b>%s</b>\n\n", date)

	b.WriteString("🎯 <b>Top 3</b>\n")
	linked := 0
	focusComplete := 0
	for i, slot := range data.Focus {
		switch slot.State() {
		case SlotEmpty:
			fmt.Fprintf(&b, "%d. —\n", i+1)
		case SlotFreeText:
			fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(slot.Title()))
		case SlotLinked:
			linked++
			taskID, _ := slot.TaskID()
			line := fmt.Sprintf("%d. %s", i+1, html.EscapeString(slot.Title()))
			if progress.RuleEnabled {
				mins := progress.Minutes[taskID]
				line += fmt.Sprintf(" · %d/%d min", mins, progress.TargetMinutes)
				if progress.Complete(taskID) {
					focusComplete++
					line += " ✅"
				}
			}
			b.WriteString(line + "\n")
		}
	}

	hideCarryOver := settings.AutoHideCarryOver && linked > 0 && focusComplete == linked
	if !hideCarryOver && len(data.CarryOver) > 0 {
		fmt.Fprintf(&b, "\n⏮ <b>Carry-over</b> · %d item(s)\n", len(data.CarryOver))
		for _, t := range data.CarryOver {
			fmt.Fprintf(&b, "• %s <i>(%s, since %s)</i>\n",
				html.EscapeString(t.Title), t.Category, *t.DueDate)
		}
	}

	if len(data.PlannedToday) > 0 {
		fmt.Fprintf(&b, "\n📋 <b>On deck</b> · %d item(s)\n", len(data.PlannedToday))
		for _, c := range model.Categories {
			for _, t := range data.Categories[c] {
				mark := "•"
				if t.Done {
					mark = "✔"
				}
				fmt.Fprintf(&b, "%s %s <i>(%s)</i>\n", mark, html.EscapeString(t.Title), t.Category)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// DueUsers returns the users whose local wall clock matches one of their
// reminder times right now, at minute precision. The dispatcher is expected
// to call this once per minute.
func (s *ReminderService) DueUsers(ctx context.Context, nowUTC time.Time) ([]model.User, error) {
	profiles, err := s.settingsRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var due []model.User
	for _, prof := range profiles {
		local := nowUTC.In(locationOrDefault(prof.Timezone))
		hhmm := local.Format("15:04")
		if hhmm != prof.MorningReminder && hhmm != prof.MiddayReminder && hhmm != prof.EveningReminder {
			continue
		}
		user, err := s.userRepo.FindByID(ctx, prof.UserID)
		if err != nil {
			continue
		}
		due = append(due, *user)
	}
	return due, nil
}

// LocalToday returns the current calendar date in the user's timezone.
func (s *ReminderService) LocalToday(ctx context.Context, user *model.User, nowUTC time.Time) (string, error) {
	settings, err := s.settingsRepo.GetOrDefault(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return dateutil.Format(nowUTC.In(locationOrDefault(settings.Timezone))), nil
}
