// Package email renders and delivers the application's outbound mail.
package email

import (
	"context"
	"time"

	"labequip_backend/platform/config"
)

// ScheduleAlertData carries the transition context rendered into a
// schedule alert email.
type ScheduleAlertData struct {
	EquipmentName string
	LabName       string
	Family        string
	PreviousState string
	NewState      string
	DueDate       time.Time
	Responsible   string
	Description   string
}

// DowntimeAlertData carries the context rendered into a downtime alert.
type DowntimeAlertData struct {
	EquipmentName string
	LabName       string
	Reason        string
	StartedAt     time.Time
}

// Sender delivers formatted messages to an already-resolved recipient list.
type Sender interface {
	SendScheduleAlert(ctx context.Context, recipients []string, data ScheduleAlertData) error
	SendDowntimeAlert(ctx context.Context, recipients []string, data DowntimeAlertData) error
}

// NoopSender is used when email is disabled; every send succeeds silently.
type NoopSender struct{}

func (NoopSender) SendScheduleAlert(ctx context.Context, recipients []string, data ScheduleAlertData) error {
	return nil
}

func (NoopSender) SendDowntimeAlert(ctx context.Context, recipients []string, data DowntimeAlertData) error {
	return nil
}

// NewSender returns the SMTP sender when email is configured, otherwise a
// NoopSender.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
