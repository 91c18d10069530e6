package service

import (
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based jobs. The generator trigger runs at the
// top of every hour; the reminder dispatcher at the top of every minute,
// aligned with wall-clock minutes so HH:MM matches are exact.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleHourly registers a job at minute zero of every hour.
func (s *SchedulerService) ScheduleHourly(job func()) (cron.EntryID, error) {
	return s.cron.AddFunc("0 0 * * * *", job)
}

// ScheduleEveryMinute registers a job at second zero of every minute.
func (s *SchedulerService) ScheduleEveryMinute(job func()) (cron.EntryID, error) {
	return s.cron.AddFunc("0 * * * * *", job)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
