package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Sender delivers one email
type Sender interface {
	Send(to, subject, body string) error
}

// Worker handles reminder task processing
type Worker struct {
	logger *zap.Logger
	sender Sender
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, sender Sender) *Worker {
	return &Worker{
		logger: logger,
		sender: sender,
	}
}

// HandleEnrollmentReminder handles reminder:enrollment tasks
func (w *Worker) HandleEnrollmentReminder(ctx context.Context, t *asynq.Task) error {
	var target models.ReminderTarget
	if err := json.Unmarshal(t.Payload(), &target); err != nil {
		return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(target.StudentEmail) == "" {
		return fmt.Errorf("reminder for enrollment %d has no recipient: %w", target.EnrollmentID, asynq.SkipRetry)
	}

	subject, body := renderReminder(target)
	if err := w.sender.Send(target.StudentEmail, subject, body); err != nil {
		w.logger.Error("Failed to send reminder", zap.Int("enrollment_id", target.EnrollmentID), zap.Error(err))
		return err
	}

	w.logger.Info("Reminder sent", zap.Int("enrollment_id", target.EnrollmentID))
	return nil
}

// HandleError logs failed reminder tasks. Failures that will not be retried are logged at Error.
func (w *Worker) HandleError(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, known := asynq.GetMaxRetry(ctx)
	fields := []zap.Field{
		zap.String("task_type", t.Type()),
		zap.Int("retried", retried),
		zap.Error(err),
	}

	if errors.Is(err, asynq.SkipRetry) || (known && retried >= maxRetry) {
		w.logger.Error("Reminder task dropped", fields...)
		return
	}
	w.logger.Warn("Reminder task failed, will retry", fields...)
}

// renderReminder builds the plain text reminder email
func renderReminder(target models.ReminderTarget) (string, string) {
	name := target.StudentName
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Keep going with %s", target.CourseTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have completed %.2f%% of %s. Pick up where you left off today.\n\nHappy learning!\n",
		name, target.ProgressPercentage, target.CourseTitle,
	)
	return subject, body
}

// smtpSender sends email using gopkg.in/mail.v2
type smtpSender struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *smtpSender {
	return &smtpSender{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send sends a plain text email
func (s *smtpSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
