package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventNewAppointment is the only push event kind the pipeline acts on.
const EventNewAppointment = "new_appointment"

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "PENDING"
	StatusApproved    AppointmentStatus = "APPROVED"
	StatusRejected    AppointmentStatus = "REJECTED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
)

// Valid reports whether s is one of the statuses the upstream system emits.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// ID is an identifier that may be sent as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type Appointment struct {
	ID        ID                `json:"id"`
	Status    AppointmentStatus `json:"status"`
	Date      string            `json:"appointment_date"`
	Time      string            `json:"time_slotted"`
	Purpose   string            `json:"purpose"`
	CreatedAt string            `json:"created_at"`
	OfficeID  ID                `json:"office_id"`
}

type Citizen struct {
	FirstName string  `json:"firstname"`
	LastName  string  `json:"lastname"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
}

// AppointmentEvent is a validated push event. It is built once per frame and
// not modified afterwards.
type AppointmentEvent struct {
	Kind        string      `json:"event"`
	Appointment Appointment `json:"appointment"`
	Citizen     Citizen     `json:"citizen"`
}
