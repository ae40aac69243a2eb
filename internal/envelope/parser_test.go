package envelope

import (
	"errors"
	"testing"

	"github.com/Priya8975/appointment-notifier/internal/domain"
)

const validFrame = `{"event":"new_appointment","data":{"appointment":{"id":"a1","status":"PENDING","appointment_date":"2024-05-01T00:00:00Z","time_slotted":"09:00:00","purpose":"Passport renewal","created_at":"2024-05-01T08:00:00Z","office_id":"o1"},"citizen":{"firstname":"Amina","lastname":"Yusuf","email":"a@x.com"}}}`

func TestParse_ValidFrame(t *testing.T) {
	ev, err := Parse([]byte(validFrame))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Kind != domain.EventNewAppointment {
		t.Errorf("Kind = %q, want %q", ev.Kind, domain.EventNewAppointment)
	}
	if ev.Appointment.ID != "a1" {
		t.Errorf("Appointment.ID = %q, want %q", ev.Appointment.ID, "a1")
	}
	if ev.Appointment.Status != domain.StatusPending {
		t.Errorf("Status = %q, want PENDING", ev.Appointment.Status)
	}
	if ev.Appointment.Time != "09:00:00" {
		t.Errorf("Time = %q, want %q", ev.Appointment.Time, "09:00:00")
	}
	if ev.Appointment.OfficeID != "o1" {
		t.Errorf("OfficeID = %q, want %q", ev.Appointment.OfficeID, "o1")
	}
	if ev.Citizen.FirstName != "Amina" || ev.Citizen.LastName != "Yusuf" {
		t.Errorf("citizen = %+v", ev.Citizen)
	}
	if ev.Citizen.Phone != nil {
		t.Errorf("Phone should be nil, got %q", *ev.Citizen.Phone)
	}
}

func TestParse_NumericIDs(t *testing.T) {
	frame := `{"event":"new_appointment","data":{"appointment":{"id":17,"status":"APPROVED","office_id":3},"citizen":{"firstname":"A","lastname":"B","phone":"+2348000"}}}`

	ev, err := Parse([]byte(frame))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Appointment.ID != "17" {
		t.Errorf("ID = %q, want %q", ev.Appointment.ID, "17")
	}
	if ev.Appointment.OfficeID != "3" {
		t.Errorf("OfficeID = %q, want %q", ev.Appointment.OfficeID, "3")
	}
	if ev.Citizen.Phone == nil || *ev.Citizen.Phone != "+2348000" {
		t.Errorf("Phone = %v", ev.Citizen.Phone)
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		reason    string
		sentinel  error
		wantField string
	}{
		{"empty", ``, ReasonMalformed, ErrMalformedFrame, ""},
		{"null", `null`, ReasonMalformed, ErrMalformedFrame, ""},
		{"not json", `hello`, ReasonMalformed, ErrMalformedFrame, ""},
		{"truncated", `{"event":"new_appointment","data":{`, ReasonMalformed, ErrMalformedFrame, ""},
		{"array", `[1,2,3]`, ReasonMalformed, ErrMalformedFrame, ""},
		{"unknown kind", `{"event":"appointment_deleted","data":{}}`, ReasonUnknownKind, ErrUnknownEventKind, ""},
		{"missing kind", `{"data":{}}`, ReasonUnknownKind, ErrUnknownEventKind, ""},
		{"missing data", `{"event":"new_appointment"}`, ReasonSchemaViolation, ErrSchemaViolation, "data"},
		{"data wrong type", `{"event":"new_appointment","data":"x"}`, ReasonSchemaViolation, ErrSchemaViolation, "data"},
		{"missing appointment", `{"event":"new_appointment","data":{"citizen":{"firstname":"A","lastname":"B"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "appointment"},
		{"missing id", `{"event":"new_appointment","data":{"appointment":{"status":"PENDING"},"citizen":{"firstname":"A","lastname":"B"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "appointment.id"},
		{"missing status", `{"event":"new_appointment","data":{"appointment":{"id":"a1"},"citizen":{"firstname":"A","lastname":"B"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "appointment.status"},
		{"unknown status", `{"event":"new_appointment","data":{"appointment":{"id":"a1","status":"ARCHIVED"},"citizen":{"firstname":"A","lastname":"B"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "appointment.status"},
		{"missing citizen", `{"event":"new_appointment","data":{"appointment":{"id":"a1","status":"PENDING"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "citizen"},
		{"missing first name", `{"event":"new_appointment","data":{"appointment":{"id":"a1","status":"PENDING"},"citizen":{"lastname":"B"}}}`, ReasonSchemaViolation, ErrSchemaViolation, "citizen.firstname"},
		{"blank last name", `{"event":"new_appointment","data":{"appointment":{"id":"a1","status":"PENDING"},"citizen":{"firstname":"A","lastname":"  "}}}`, ReasonSchemaViolation, ErrSchemaViolation, "citizen.lastname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.frame))
			if err == nil {
				t.Fatal("expected rejection, got nil")
			}
			if got := Reason(err); got != tt.reason {
				t.Errorf("Reason = %q, want %q (err: %v)", got, tt.reason, err)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			var rej *RejectedError
			if errors.As(err, &rej) && rej.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", rej.Field, tt.wantField)
			}
		})
	}
}

func TestParse_UnknownKindCarriesKind(t *testing.T) {
	_, err := Parse([]byte(`{"event":"office_closed"}`))

	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RejectedError, got %T", err)
	}
	if rej.Kind != "office_closed" {
		t.Errorf("Kind = %q, want %q", rej.Kind, "office_closed")
	}
}

func TestReason_NonRejection(t *testing.T) {
	if got := Reason(errors.New("boom")); got != "" {
		t.Errorf("Reason = %q, want empty", got)
	}
	if got := Reason(nil); got != "" {
		t.Errorf("Reason(nil) = %q, want empty", got)
	}
}
