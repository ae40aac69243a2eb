package domain

import "strings"

// Subject identifies a push subscription: an office plus the bearer
// credential used to open it.
type Subject struct {
	OfficeID   string `json:"office_id"`
	Credential string `json:"-"`
}

// Equal reports whether both subjects would open the same subscription.
func (s Subject) Equal(other Subject) bool {
	return s.OfficeID == other.OfficeID && s.Credential == other.Credential
}

// Validate checks that both fields are present.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.OfficeID) == "" {
		return &SubjectError{Reason: "office id is required"}
	}
	if strings.TrimSpace(s.Credential) == "" {
		return &SubjectError{Reason: "credential is required"}
	}
	return nil
}

// Lifecycle is the state of a single subscription.
type Lifecycle string

const (
	LifecycleIdle       Lifecycle = "idle"
	LifecycleConnecting Lifecycle = "connecting"
	LifecycleOpen       Lifecycle = "open"
	LifecycleClosed     Lifecycle = "closed"
	LifecycleErrored    Lifecycle = "errored"
)

// ConnectionState is the externally visible push state of a manager.
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
	Polling      ConnectionState = "polling"
)

// ScopeOfficeAppointments covers every cached appointment read-model of an
// office (pending list and full list).
const ScopeOfficeAppointments = "office_appointments"

// Scope names a family of cached queries to invalidate.
type Scope struct {
	Kind     string `json:"kind"`
	OfficeID string `json:"office_id"`
}

func OfficeAppointments(officeID string) Scope {
	return Scope{Kind: ScopeOfficeAppointments, OfficeID: officeID}
}
