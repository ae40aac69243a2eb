package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Priya8975/appointment-notifier/internal/bridge"
	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/envelope"
	"github.com/Priya8975/appointment-notifier/internal/notification"
)

// Outcome reports what the pipeline did with one frame.
type Outcome struct {
	Event     *domain.AppointmentEvent
	Rejected  error
	Inserted  bool
	Signalled bool
}

// Pipeline processes push frames for a subject: parse, append qualifying
// notifications, signal the cache bridge and publish to the UI. A frame is
// processed to completion before HandleFrame returns.
type Pipeline struct {
	store     *notification.Store
	bridge    bridge.Bridge
	publisher Publisher
	logger    *slog.Logger
}

func NewPipeline(store *notification.Store, b bridge.Bridge, publisher Publisher, logger *slog.Logger) *Pipeline {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &Pipeline{
		store:     store,
		bridge:    b,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleFrame never fails: rejected frames are logged and dropped, and bridge
// errors are logged without affecting the stored notification.
func (p *Pipeline) HandleFrame(ctx context.Context, subject domain.Subject, frame []byte) Outcome {
	ev, err := envelope.Parse(frame)
	if err != nil {
		p.logRejected(subject, err)
		return Outcome{Rejected: err}
	}

	out := Outcome{Event: &ev}

	if n, ok := notification.FromEvent(ev); ok {
		out.Inserted = p.store.Append(n)
		if out.Inserted {
			p.publisher.Publish(EventNotification, n)
		} else {
			p.logger.Debug("duplicate notification ignored",
				"notification_id", n.ID,
				"office_id", subject.OfficeID,
			)
		}
	}

	if err := p.bridge.Signal(ctx, domain.OfficeAppointments(subject.OfficeID)); err != nil {
		p.logger.Error("cache invalidation failed",
			"error", err,
			"office_id", subject.OfficeID,
			"appointment_id", ev.Appointment.ID,
		)
	} else {
		out.Signalled = true
	}

	p.logger.Info("appointment event processed",
		"office_id", subject.OfficeID,
		"appointment_id", ev.Appointment.ID,
		"status", ev.Appointment.Status,
		"notified", out.Inserted,
	)
	return out
}

func (p *Pipeline) logRejected(subject domain.Subject, err error) {
	switch {
	case errors.Is(err, envelope.ErrUnknownEventKind):
		p.logger.Debug("ignoring unknown event kind",
			"office_id", subject.OfficeID,
			"error", err,
		)
	case errors.Is(err, envelope.ErrSchemaViolation):
		p.logger.Warn("dropping frame with schema violation",
			"office_id", subject.OfficeID,
			"error", err,
		)
	default:
		p.logger.Warn("dropping malformed frame",
			"office_id", subject.OfficeID,
			"error", err,
		)
	}
}
