package domain

import "time"

// Notification is the user-facing projection of a pending appointment event.
type Notification struct {
	ID              string `json:"id"`
	AppointmentID   string `json:"appointment_id"`
	CitizenName     string `json:"citizenName"`
	ServiceName     string `json:"serviceName"`
	AppointmentDate string `json:"appointmentDate"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	IsRead          bool   `json:"isRead"`
}

// Warning is surfaced once per degradation episode.
type Warning struct {
	OfficeID string    `json:"office_id"`
	Message  string    `json:"message"`
	Since    time.Time `json:"since"`
}
