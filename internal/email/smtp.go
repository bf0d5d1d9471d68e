package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, recipients []string, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendScheduleAlert(ctx context.Context, recipients []string, data ScheduleAlertData) error {
	subject := fmt.Sprintf(subjectScheduleAlertFmt, data.EquipmentName, data.NewState)
	content, err := renderEmailTemplate("schedule_alert.html", scheduleAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Schedule attention required",
			Heading: "Schedule attention required",
		},
		EquipmentName: data.EquipmentName,
		LabName:       data.LabName,
		Family:        data.Family,
		PreviousState: data.PreviousState,
		NewState:      data.NewState,
		DueDate:       data.DueDate.Format("2006-01-02"),
		Responsible:   data.Responsible,
		Description:   data.Description,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, recipients, subject, content)
}

func (s *SMTPSender) SendDowntimeAlert(ctx context.Context, recipients []string, data DowntimeAlertData) error {
	subject := fmt.Sprintf(subjectDowntimeAlertFmt, data.EquipmentName)
	content, err := renderEmailTemplate("downtime_alert.html", downtimeAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Equipment downtime reported",
			Heading: "Equipment downtime reported",
		},
		EquipmentName: data.EquipmentName,
		LabName:       data.LabName,
		Reason:        data.Reason,
		StartedAt:     data.StartedAt.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, recipients, subject, content)
}
