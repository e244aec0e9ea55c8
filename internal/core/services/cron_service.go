package services

import (
	"context"
	"log"
	"time"

	"barstock-pos/internal/config"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// CronService runs the scheduled jobs
type CronService struct {
	cron     *cron.Cron
	jobs     config.JobsConfig
	alerts   *StockAlertService
	reminder *ReminderService
	auth     *AuthService
	checkout *CheckoutService
}

// NewCronService creates a new cron service
func NewCronService(
	jobs config.JobsConfig,
	alerts *StockAlertService,
	reminder *ReminderService,
	auth *AuthService,
	checkout *CheckoutService,
) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		jobs:     jobs,
		alerts:   alerts,
		reminder: reminder,
		auth:     auth,
		checkout: checkout,
	}
}

// Start registers every job and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context)
	}{
		{"stock scan", s.jobs.StockScanSchedule, s.scanStock},
		{"reminders", s.jobs.ReminderSchedule, s.dispatchReminders},
		{"token cleanup", s.jobs.TokenCleanupSchedule, s.purgeTokens},
		{"checkout sweep", "@every 5m", s.sweepCheckouts},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			job.run(ctx)
		}); err != nil {
			return err
		}
		log.Printf("✅ Scheduled job %q (%s)", job.name, job.schedule)
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

func (s *CronService) scanStock(ctx context.Context) {
	n, err := s.alerts.ScanAll(ctx)
	if err != nil {
		log.Printf("❌ Stock scan failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("⚠️ Stock scan: %d products at or under threshold", n)
	}
}

func (s *CronService) dispatchReminders(ctx context.Context) {
	n, err := s.reminder.DispatchDue(ctx)
	if err != nil {
		log.Printf("❌ Reminder dispatch failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Dispatched %d reminders", n)
	}
}

func (s *CronService) purgeTokens(ctx context.Context) {
	n, err := s.auth.PurgeExpiredTokens(ctx)
	if err != nil {
		log.Printf("❌ Refresh token cleanup failed: %v", err)
		return
	}
	log.Printf("✅ Removed %d expired refresh tokens", n)
}

func (s *CronService) sweepCheckouts(ctx context.Context) {
	if n := s.checkout.SweepStale(ctx); n > 0 {
		log.Printf("🛑 Released %d stale checkout sessions", n)
	}
}
