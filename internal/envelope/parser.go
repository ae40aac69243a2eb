// Package envelope validates raw push frames into appointment events.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// Rejection reasons.
const (
	ReasonMalformed       = "malformed"
	ReasonUnknownKind     = "unknown_kind"
	ReasonSchemaViolation = "schema_violation"
)

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrSchemaViolation  = errors.New("schema violation")
)

// RejectedError describes why a frame was dropped.
type RejectedError struct {
	Reason string
	Kind   string
	Field  string
	Err    error
}

func (e *RejectedError) Error() string {
	switch e.Reason {
	case ReasonUnknownKind:
		return fmt.Sprintf("frame rejected: unknown event kind %q", e.Kind)
	case ReasonSchemaViolation:
		return fmt.Sprintf("frame rejected: schema violation on %s", e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("frame rejected: malformed: %v", e.Err)
	}
	return "frame rejected: malformed"
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func (e *RejectedError) Is(target error) bool {
	switch e.Reason {
	case ReasonMalformed:
		return target == ErrMalformedFrame
	case ReasonUnknownKind:
		return target == ErrUnknownEventKind
	case ReasonSchemaViolation:
		return target == ErrSchemaViolation
	}
	return false
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type payload struct {
	Appointment *domain.Appointment `json:"appointment"`
	Citizen     *domain.Citizen     `json:"citizen"`
}

// Parse decodes a raw frame into an AppointmentEvent. Every failure is
// returned as a *RejectedError; Parse never panics on arbitrary input.
func Parse(frame []byte) (domain.AppointmentEvent, error) {
	if trimmed := bytes.TrimSpace(frame); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.AppointmentEvent{}, &RejectedError{Reason: ReasonMalformed}
	}

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return domain.AppointmentEvent{}, &RejectedError{Reason: ReasonMalformed, Err: err}
	}

	if env.Event != domain.EventNewAppointment {
		return domain.AppointmentEvent{}, &RejectedError{Reason: ReasonUnknownKind, Kind: env.Event}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "data", nil)
	}

	var p payload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "data", err)
	}

	if p.Appointment == nil {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "appointment", nil)
	}
	if strings.TrimSpace(string(p.Appointment.ID)) == "" {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "appointment.id", nil)
	}
	if !p.Appointment.Status.Valid() {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "appointment.status", nil)
	}
	if p.Citizen == nil {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "citizen", nil)
	}
	if strings.TrimSpace(p.Citizen.FirstName) == "" {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "citizen.firstname", nil)
	}
	if strings.TrimSpace(p.Citizen.LastName) == "" {
		return domain.AppointmentEvent{}, schemaViolation(env.Event, "citizen.lastname", nil)
	}

	return domain.AppointmentEvent{
		Kind:        env.Event,
		Appointment: *p.Appointment,
		Citizen:     *p.Citizen,
	}, nil
}

func schemaViolation(kind, field string, err error) *RejectedError {
	return &RejectedError{Reason: ReasonSchemaViolation, Kind: kind, Field: field, Err: err}
}

// Reason extracts the rejection reason from err, or "" if err is not a
// rejection.
func Reason(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}
