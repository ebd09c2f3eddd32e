package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_ExtractsBookingAndStripsBlock(t *testing.T) {
	raw := "Great, Priya! Your appointment is confirmed.\n\n```json\n{\n  \"status\": \"confirmed\",\n  \"patient_name\": \"Priya\",\n  \"department\": \"Cardiology\",\n  \"time\": \"Tomorrow 10:00 AM\",\n  \"priority\": \"normal\",\n  \"contact_number\": \"N/A\"\n}\n```\n\nTake care!"

	parsed := ParseReply(raw)

	require.NoError(t, parsed.Err)
	require.NotNil(t, parsed.Booking)
	assert.Equal(t, "Great, Priya! Your appointment is confirmed.\n\n\n\nTake care!", parsed.DisplayText)
	assert.Equal(t, Record{
		Status:        StatusConfirmed,
		PatientName:   "Priya",
		Department:    "Cardiology",
		Time:          "Tomorrow 10:00 AM",
		Priority:      PriorityNormal,
		ContactNumber: "N/A",
	}, *parsed.Booking)
}

func TestParseReply_BlockOnly(t *testing.T) {
	raw := "```json\n{\"status\":\"cancelled\",\"patient_name\":\"John\",\"department\":\"ENT\",\"time\":\"Monday\"}\n```"

	parsed := ParseReply(raw)

	require.NotNil(t, parsed.Booking)
	assert.Equal(t, "", parsed.DisplayText)
	assert.True(t, parsed.Booking.IsCancelled())
}

func TestParseReply_NoBlock(t *testing.T) {
	raw := "  What seems to be the problem?  "

	parsed := ParseReply(raw)

	assert.Nil(t, parsed.Booking)
	assert.NoError(t, parsed.Err)
	assert.Equal(t, raw, parsed.DisplayText)
}

func TestParseReply_MalformedBlockLeavesTextUntouched(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "invalid json",
			raw:     "Booked!\n```json\n{ \"status\": \"confirmed\", \"patient_name\": \n```",
			wantErr: ErrMalformedBlock,
		},
		{
			name:    "array body",
			raw:     "```json\n[1, 2]\n```",
			wantErr: ErrMalformedBlock,
		},
		{
			name:    "empty body",
			raw:     "Done\n```json\n\n```",
			wantErr: ErrMalformedBlock,
		},
		{
			name:    "missing department",
			raw:     "```json\n{\"status\":\"confirmed\",\"patient_name\":\"Asha\",\"time\":\"5 PM\"}\n```",
			wantErr: ErrMissingField,
		},
		{
			name:    "blank patient name",
			raw:     "ok\n```json\n{\"status\":\"confirmed\",\"patient_name\":\"  \",\"department\":\"ENT\",\"time\":\"5 PM\"}\n```",
			wantErr: ErrMissingField,
		},
		{
			name:    "wrong field type",
			raw:     "```json\n{\"status\":\"confirmed\",\"patient_name\":\"Asha\",\"department\":\"ENT\",\"time\":5}\n```",
			wantErr: ErrMalformedBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseReply(tt.raw)
			assert.Nil(t, parsed.Booking)
			assert.Equal(t, tt.raw, parsed.DisplayText)
			assert.True(t, errors.Is(parsed.Err, tt.wantErr), "got %v", parsed.Err)
		})
	}
}

func TestParseReply_OnlyFirstBlockHonoured(t *testing.T) {
	first := "```json\n{\"status\":\"confirmed\",\"patient_name\":\"A\",\"department\":\"ENT\",\"time\":\"1 PM\"}\n```"
	second := "```json\n{\"status\":\"confirmed\",\"patient_name\":\"B\",\"department\":\"ENT\",\"time\":\"2 PM\"}\n```"

	parsed := ParseReply("Intro\n" + first + "\nMiddle\n" + second)

	require.NotNil(t, parsed.Booking)
	assert.Equal(t, "A", parsed.Booking.PatientName)
	assert.Equal(t, "Intro\n\nMiddle\n"+second, parsed.DisplayText)
}

func TestParseReply_IgnoresModelTimestamp(t *testing.T) {
	raw := "```json\n{\"status\":\"confirmed\",\"patient_name\":\"A\",\"department\":\"ENT\",\"time\":\"1 PM\",\"timestamp\":\"09:00 AM\",\"reason\":\"Severe bleeding\",\"priority\":\"high\"}\n```"

	parsed := ParseReply(raw)

	require.NotNil(t, parsed.Booking)
	assert.Empty(t, parsed.Booking.RecordedAt)
	assert.Equal(t, "Severe bleeding", parsed.Booking.Reason)
	assert.True(t, parsed.Booking.IsHighPriority())
}

func TestParseReply_CRLFDelimiters(t *testing.T) {
	raw := "Confirmed.\r\n```json\r\n{\"status\":\"pending_callback\",\"patient_name\":\"Ravi\",\"department\":\"Pediatrics\",\"time\":\"Flexible\",\"contact_number\":\"98400 12345\"}\r\n```"

	parsed := ParseReply(raw)

	require.NotNil(t, parsed.Booking)
	assert.Equal(t, "Confirmed.", parsed.DisplayText)
	assert.Equal(t, StatusPendingCallback, parsed.Booking.Status)
}

func TestRecordPredicates(t *testing.T) {
	assert.True(t, Record{Status: "Cancelled"}.IsCancelled())
	assert.True(t, Record{Status: StatusPendingCallback}.IsActive())
	assert.False(t, Record{Priority: PriorityNormal}.IsHighPriority())
	assert.True(t, Record{Priority: "HIGH"}.IsHighPriority())
}
