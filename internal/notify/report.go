package notify

import (
	"strings"

	"github.com/wolfman30/mediassist/internal/booking"
)

const emptyReport = "No active appointments today."

// DailyReport summarises active bookings for the front desk.
func DailyReport(records []booking.Record) string {
	var b strings.Builder
	for _, rec := range records {
		if rec.IsCancelled() {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("*📅 Hospital Daily Report*\n\n")
		}
		b.WriteString("• ")
		if rec.IsHighPriority() {
			b.WriteString("🚨 *URGENT* ")
		}
		b.WriteString("*" + rec.Time + "*: " + rec.PatientName + " (" + rec.Department + ")\n")
		if rec.ContactNumber != "" {
			b.WriteString("  _Contact: " + rec.ContactNumber + "_\n")
		}
	}
	if b.Len() == 0 {
		return emptyReport
	}
	return b.String()
}

// ReportMessage wraps the daily report for manual dispatch. Unlike
// OnNewBooking it ignores the auto-send flag.
func ReportMessage(records []booking.Record, destination string) OutboundMessage {
	return *newMessage(KindReport, destination, DailyReport(records))
}
