package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state the model reports for a booking.
// Values other than the constants below are kept verbatim.
type Status string

const (
	StatusConfirmed       Status = "confirmed"
	StatusPendingCallback Status = "pending_callback"
	StatusCancelled       Status = "cancelled"
)

// Priority flags urgent bookings.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

var (
	// ErrMalformedBlock is returned when the structured block is not a JSON object.
	ErrMalformedBlock = errors.New("booking: malformed structured block")

	// ErrMissingField is returned when a required booking field is absent or blank.
	ErrMissingField = errors.New("booking: missing required field")
)

// Record is one appointment or callback entry in the ledger.
type Record struct {
	Status        Status   `json:"status"`
	PatientName   string   `json:"patient_name"`
	Department    string   `json:"department"`
	Time          string   `json:"time"`
	Priority      Priority `json:"priority,omitempty"`
	ContactNumber string   `json:"contact_number,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	// RecordedAt is stamped by the ledger, never by the model.
	RecordedAt string `json:"timestamp,omitempty"`
}

// IsCancelled reports whether the record is in the terminal cancelled state.
func (r Record) IsCancelled() bool {
	return strings.EqualFold(strings.TrimSpace(string(r.Status)), string(StatusCancelled))
}

// IsActive is the complement of IsCancelled.
func (r Record) IsActive() bool {
	return !r.IsCancelled()
}

// IsHighPriority reports an explicit high priority flag.
func (r Record) IsHighPriority() bool {
	return strings.EqualFold(strings.TrimSpace(string(r.Priority)), string(PriorityHigh))
}

// Validate checks the fields the model contract marks as required.
func (r Record) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"status", string(r.Status)},
		{"patient_name", r.PatientName},
		{"department", r.Department},
		{"time", r.Time},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}
	return nil
}
