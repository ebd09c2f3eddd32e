package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/mediassist/internal/booking"
)

const whatsAppBaseURL = "https://wa.me/"

// Kind distinguishes the two outbound message shapes.
type Kind string

const (
	KindNewBooking Kind = "new_booking"
	KindReport     Kind = "report"
)

// Config is the admin's auto-dispatch preference.
type Config struct {
	Enabled           bool
	DestinationNumber string
}

// OutboundMessage is a prepared notification awaiting dispatch.
type OutboundMessage struct {
	Kind Kind
	// To holds only digits; empty means the messaging app asks for a recipient.
	To   string
	Text string
	URL  string
}

// OnNewBooking decides whether a freshly inserted booking should notify the
// admin. Cancellations and disabled configs yield nil.
func OnNewBooking(rec booking.Record, cfg Config) *OutboundMessage {
	if !cfg.Enabled || rec.IsCancelled() {
		return nil
	}
	text := fmt.Sprintf("*✅ New Booking Confirmed*\n\n• *Patient*: %s\n• *Dept*: %s\n• *Time*: %s",
		rec.PatientName, rec.Department, rec.Time)
	return newMessage(KindNewBooking, cfg.DestinationNumber, text)
}

// WhatsAppLink builds the click-to-chat URL for text. The destination segment
// is dropped when the number has no digits.
func WhatsAppLink(destination, text string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return whatsAppBaseURL + DigitsOnly(destination) + "?text=" + encoded
}

// DigitsOnly strips every non-numeric character.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newMessage(kind Kind, destination, text string) *OutboundMessage {
	return &OutboundMessage{
		Kind: kind,
		To:   DigitsOnly(destination),
		Text: text,
		URL:  WhatsAppLink(destination, text),
	}
}
