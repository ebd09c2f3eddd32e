package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSender struct {
	sent []EmailMessage
	fail map[string]error
}

func (c *capturingSender) Send(ctx context.Context, msg EmailMessage) error {
	c.sent = append(c.sent, msg)
	return c.fail[msg.To]
}

func TestEmailDispatcher_SendsToEveryRecipient(t *testing.T) {
	sender := &capturingSender{}
	d := NewEmailDispatcher(sender, []string{"a@example.com", "b@example.com"}, "City Hospital")

	msg := *newMessage(KindNewBooking, "555", "*✅ New Booking Confirmed*\n\n• *Patient*: Priya")
	require.NoError(t, d.Dispatch(context.Background(), msg))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "City Hospital: new booking confirmed", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "✅ New Booking Confirmed")
	assert.NotContains(t, sender.sent[0].Body, "*Patient*")
	assert.Contains(t, sender.sent[1].Body, "WhatsApp: https://wa.me/555?text=")
}

func TestEmailDispatcher_ReportSubject(t *testing.T) {
	sender := &capturingSender{}
	d := NewEmailDispatcher(sender, []string{"a@example.com"}, "")
	d.now = func() time.Time { return time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, d.Dispatch(context.Background(), ReportMessage(nil, "")))
	assert.Equal(t, "MediAssist daily report 2025-03-09", sender.sent[0].Subject)
}

func TestEmailDispatcher_JoinsErrors(t *testing.T) {
	boom := errors.New("mailbox full")
	sender := &capturingSender{fail: map[string]error{"b@example.com": boom}}
	d := NewEmailDispatcher(sender, []string{"a@example.com", "b@example.com"}, "")

	err := d.Dispatch(context.Background(), OutboundMessage{Kind: KindNewBooking})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, sender.sent, 2)
}

func TestEmailDispatcher_NoRecipients(t *testing.T) {
	sender := &capturingSender{}
	d := NewEmailDispatcher(sender, nil, "")
	assert.NoError(t, d.Dispatch(context.Background(), OutboundMessage{}))
	assert.Empty(t, sender.sent)
}

func TestFanOut(t *testing.T) {
	first := &recordingDispatcher{}
	second := &recordingDispatcher{err: errors.New("down")}
	fan := FanOut{first, nil, second, NewLogDispatcher(nil)}

	err := fan.Dispatch(context.Background(), OutboundMessage{Kind: KindReport})
	assert.Error(t, err)
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}
