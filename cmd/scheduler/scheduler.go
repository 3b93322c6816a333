package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lmsplatform/backend/internal/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderDispatcher enqueues the daily reminders
type ReminderDispatcher interface {
	// DispatchDailyReminders enqueues one reminder per active enrollment for today
	DispatchDailyReminders(ctx context.Context) (services.DispatchResult, error)
}

// Scheduler runs the reminder dispatch on a cron schedule
type Scheduler struct {
	cron       *cron.Cron
	dispatcher ReminderDispatcher
	logger     *zap.Logger
	timeout    time.Duration
	entryID    cron.EntryID
}

// NewScheduler creates a new scheduler instance. spec is a standard five field cron expression evaluated in location.
func NewScheduler(spec string, location *time.Location, dispatcher ReminderDispatcher, logger *zap.Logger) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}

	s := &Scheduler{
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    10 * time.Minute,
	}
	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	id, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next_run", s.NextRun()))
}

// Stop stops the scheduler and waits for a running dispatch to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the time of the next reminder dispatch
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// runOnce executes one dispatch
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.dispatcher.DispatchDailyReminders(ctx)
	if err != nil {
		s.logger.Error("Failed to dispatch reminders", zap.Error(err))
		return
	}
	s.logger.Debug("Reminder run finished", zap.Int("enqueued", result.Enqueued))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
