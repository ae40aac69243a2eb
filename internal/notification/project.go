package notification

import (
	"strings"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

// IDPrefix is prepended to the appointment id to build a notification id.
const IDPrefix = "notif-"

// IDFor returns the deterministic notification id of an appointment.
func IDFor(appointmentID string) string {
	return IDPrefix + appointmentID
}

// StatusLabel maps an appointment status to the label shown to hosts.
func StatusLabel(status domain.AppointmentStatus) string {
	switch status {
	case domain.StatusPending:
		return "pending_approval"
	case domain.StatusApproved:
		return "approved"
	case domain.StatusRejected:
		return "rejected"
	case domain.StatusCancelled:
		return "cancelled"
	case domain.StatusRescheduled:
		return "rescheduled"
	}
	return strings.ToLower(string(status))
}

// FromEvent projects ev into a notification. Only pending appointments need
// a host decision, so any other status yields false.
func FromEvent(ev domain.AppointmentEvent) (domain.Notification, bool) {
	if ev.Appointment.Status != domain.StatusPending {
		return domain.Notification{}, false
	}

	apptID := string(ev.Appointment.ID)
	return domain.Notification{
		ID:              IDFor(apptID),
		AppointmentID:   apptID,
		CitizenName:     strings.TrimSpace(strings.TrimSpace(ev.Citizen.FirstName) + " " + strings.TrimSpace(ev.Citizen.LastName)),
		ServiceName:     ev.Appointment.Purpose,
		AppointmentDate: CombineDateTime(ev.Appointment.Date, ev.Appointment.Time),
		Status:          StatusLabel(ev.Appointment.Status),
		CreatedAt:       ev.Appointment.CreatedAt,
		IsRead:          false,
	}, true
}

// CombineDateTime joins the calendar day of date with the time-of-day slot,
// producing "YYYY-MM-DDTHH:MM:SS". An empty slot keeps the time carried by
// date itself. Values that cannot be parsed are passed through unchanged.
func CombineDateTime(date, slot string) string {
	date = strings.TrimSpace(date)
	slot = strings.TrimSpace(slot)

	day, dateTime, ok := parseDate(date)
	if !ok {
		if slot == "" {
			return date
		}
		return date + "T" + slot
	}

	if slot == "" {
		return day + "T" + dateTime
	}
	for _, layout := range []string{"15:04:05", "15:04", "15:04:05.000000"} {
		if t, err := time.Parse(layout, slot); err == nil {
			return day + "T" + t.Format("15:04:05")
		}
	}
	return day + "T" + slot
}

func parseDate(date string) (day, clock string, ok bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01-02"), t.Format("15:04:05"), true
		}
	}
	if len(date) >= 10 {
		if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return t.Format("2006-01-02"), "00:00:00", true
		}
	}
	return "", "", false
}
