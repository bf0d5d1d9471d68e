// Package notification turns schedule and downtime events into outbound
// alerts. Delivery is best-effort: failures are logged and counted, never
// propagated back to the publisher.
package notification

import (
	"context"
	"strings"

	"labequip_backend/internal/email"
	equipdomain "labequip_backend/internal/equipment/domain"
	"labequip_backend/internal/events"
	"labequip_backend/platform/config"
	"labequip_backend/platform/logger"

	"golang.org/x/time/rate"
)

// ContextResolver looks up the lab and contact details for a piece of
// equipment. The equipment repository satisfies it; tests inject fakes.
type ContextResolver interface {
	GetContext(ctx context.Context, equipmentID int64) (*equipdomain.Context, error)
}

// Dispatcher resolves recipients for an alert and hands the rendered
// message to the email sender. A shared rate limiter keeps the SMTP
// relay from being flooded during large batch runs.
type Dispatcher struct {
	resolver ContextResolver
	sender   email.Sender
	observer string
	limiter  *rate.Limiter
	log      *logger.Logger
}

// New creates a dispatcher. A rate of 0 or below disables throttling.
func New(resolver ContextResolver, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Dispatcher {
	perSecond := cfg.GetEmailRatePerSecond()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &Dispatcher{
		resolver: resolver,
		sender:   sender,
		observer: cfg.GetObserverEmail(),
		limiter:  limiter,
		log:      log,
	}
}

// Dispatch sends a schedule alert for the transition. It reports whether
// the alert reached the sender successfully; the caller folds the result
// into its run counters and moves on either way.
func (d *Dispatcher) Dispatch(ctx context.Context, transition events.ScheduleStateChanged) bool {
	equipCtx, err := d.resolver.GetContext(ctx, transition.EquipmentID)
	if err != nil {
		d.log.NotificationError("", 0, err)
		return false
	}

	recipients := d.recipients(equipCtx)
	if len(recipients) == 0 {
		d.log.Warn("no recipients for schedule alert",
			"equipment", equipCtx.EquipmentName,
			"schedule_id", transition.ScheduleID)
		return false
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.log.NotificationError(equipCtx.EquipmentName, len(recipients), err)
		return false
	}

	data := email.ScheduleAlertData{
		EquipmentName: equipCtx.EquipmentName,
		LabName:       equipCtx.LabName,
		Family:        string(transition.Family),
		PreviousState: string(transition.PreviousState),
		NewState:      string(transition.NewState),
		DueDate:       transition.NextDueDate,
		Responsible:   string(transition.Responsible),
		Description:   transition.Description,
	}
	if err := d.sender.SendScheduleAlert(ctx, recipients, data); err != nil {
		d.log.NotificationError(equipCtx.EquipmentName, len(recipients), err)
		return false
	}
	return true
}

// RegisterHandlers subscribes the dispatcher to the events it consumes
// asynchronously. Batch runs hand their transitions to Dispatch inline so
// the run can count them and do not publish them here; bus-carried state
// changes come from the manual completion path.
func (d *Dispatcher) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ScheduleStateChanged{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			transition, ok := event.(events.ScheduleStateChanged)
			if !ok {
				return nil
			}
			// A transition into the compliant state is good news and
			// stays quiet.
			if transition.Compliant {
				return nil
			}
			d.Dispatch(ctx, transition)
			return nil
		}))
	bus.Subscribe(events.DowntimeOpened{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			opened, ok := event.(events.DowntimeOpened)
			if !ok {
				return nil
			}
			d.handleDowntimeOpened(ctx, opened)
			return nil
		}))
}

func (d *Dispatcher) handleDowntimeOpened(ctx context.Context, opened events.DowntimeOpened) {
	equipCtx, err := d.resolver.GetContext(ctx, opened.EquipmentID)
	if err != nil {
		d.log.NotificationError("", 0, err)
		return
	}

	recipients := d.recipients(equipCtx)
	if len(recipients) == 0 {
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.log.NotificationError(equipCtx.EquipmentName, len(recipients), err)
		return
	}

	data := email.DowntimeAlertData{
		EquipmentName: equipCtx.EquipmentName,
		LabName:       equipCtx.LabName,
		Reason:        opened.Reason,
		StartedAt:     opened.OccurredAt(),
	}
	if err := d.sender.SendDowntimeAlert(ctx, recipients, data); err != nil {
		d.log.NotificationError(equipCtx.EquipmentName, len(recipients), err)
	}
}

// recipients builds the deduplicated recipient list: the lab manager, the
// lab coordinator, and the configured observer address.
func (d *Dispatcher) recipients(equipCtx *equipdomain.Context) []string {
	candidates := []string{equipCtx.ManagerEmail, equipCtx.CoordinatorEmail, d.observer}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, addr := range candidates {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
