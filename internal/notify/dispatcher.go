package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/mediassist/pkg/logging"
)

// LogDispatcher writes the click-to-chat link to the log. It stands in for
// opening the messaging app when no display is attached.
type LogDispatcher struct {
	logger *logging.Logger
}

func NewLogDispatcher(logger *logging.Logger) *LogDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msg OutboundMessage) error {
	d.logger.Info("notify: open messaging link", "kind", msg.Kind, "to", msg.To, "url", msg.URL)
	return nil
}

// EmailDispatcher mirrors outbound messages to front-desk mailboxes.
type EmailDispatcher struct {
	sender     EmailSender
	recipients []string
	clinicName string
	now        func() time.Time
}

func NewEmailDispatcher(sender EmailSender, recipients []string, clinicName string) *EmailDispatcher {
	return &EmailDispatcher{
		sender:     sender,
		recipients: recipients,
		clinicName: clinicName,
		now:        time.Now,
	}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, msg OutboundMessage) error {
	if d.sender == nil || len(d.recipients) == 0 {
		return nil
	}
	email := EmailMessage{
		Subject: d.subject(msg.Kind),
		Body:    plainText(msg.Text) + "\n\nWhatsApp: " + msg.URL,
	}
	var errs []error
	for _, to := range d.recipients {
		email.To = to
		if err := d.sender.Send(ctx, email); err != nil {
			errs = append(errs, fmt.Errorf("notify: email %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (d *EmailDispatcher) subject(kind Kind) string {
	prefix := d.clinicName
	if prefix == "" {
		prefix = defaultFromName
	}
	switch kind {
	case KindReport:
		return fmt.Sprintf("%s daily report %s", prefix, d.now().Format("2006-01-02"))
	default:
		return prefix + ": new booking confirmed"
	}
}

// plainText strips the messaging app's emphasis markers.
func plainText(s string) string {
	return strings.NewReplacer("*", "", "_", "").Replace(s)
}

// FanOut dispatches to every target and joins their errors.
type FanOut []Dispatcher

func (f FanOut) Dispatch(ctx context.Context, msg OutboundMessage) error {
	var errs []error
	for _, d := range f {
		if d == nil {
			continue
		}
		if err := d.Dispatch(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
