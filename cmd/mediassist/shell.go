package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wolfman30/mediassist/internal/app"
	"github.com/wolfman30/mediassist/internal/booking"
	"github.com/wolfman30/mediassist/internal/conversation"
	"github.com/wolfman30/mediassist/internal/notify"
)

const helpText = `Commands:
  /stats              dashboard counts and top departments
  /history            booking ledger, newest first
  /report             print the daily report
  /send-report        send the daily report to the admin now
  /phone <number>     set the admin WhatsApp number
  /autosend on|off    toggle automatic booking alerts
  /metrics            session counters in Prometheus text format
  /clear              delete all booking history
  /quit               exit`

// syncWriter serializes writes from the chat loop and the notification timer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type terminalDispatcher struct {
	out io.Writer
}

func newTerminalDispatcher(out io.Writer) *terminalDispatcher {
	return &terminalDispatcher{out: out}
}

func (d *terminalDispatcher) Dispatch(ctx context.Context, msg notify.OutboundMessage) error {
	_, err := fmt.Fprintf(d.out, "\n📲 Open WhatsApp to send: %s\n", msg.URL)
	return err
}

type shell struct {
	app     *app.App
	scanner *bufio.Scanner
	out     io.Writer
}

func newShell(a *app.App, in io.Reader, out io.Writer) *shell {
	return &shell{app: a, scanner: bufio.NewScanner(in), out: out}
}

func (s *shell) run(ctx context.Context) error {
	s.printf("MediAssist front desk. Type /help for commands.\n\n")
	if result, err := s.app.Controller.Start(ctx); err == nil {
		s.printReply(result)
	}

	for {
		s.printf("> ")
		if !s.scanner.Scan() {
			return s.scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.handle(ctx, s.scanner.Text()); quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		s.chat(ctx, line)
		return false
	}

	command, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		s.printf("%s\n", helpText)
	case "/stats":
		s.printStats()
	case "/history":
		s.printHistory()
	case "/report":
		s.printf("%s\n", s.app.Report())
	case "/send-report":
		msg, err := s.app.SendReport(ctx)
		if err != nil {
			s.printf("Report could not be sent: %v\n", err)
			return false
		}
		if msg.To == "" {
			s.printf("No admin number set; choose a recipient in WhatsApp.\n")
		}
	case "/metrics":
		if err := s.app.WriteMetrics(s.out); err != nil {
			s.printf("Metrics unavailable: %v\n", err)
		}
	case "/phone":
		cfg := s.app.Controller.NotifyConfig()
		cfg.DestinationNumber = arg
		s.updateSettings(ctx, cfg)
		s.printf("Admin number set to %q.\n", arg)
	case "/autosend":
		cfg := s.app.Controller.NotifyConfig()
		switch strings.ToLower(arg) {
		case "on":
			cfg.Enabled = true
		case "off":
			cfg.Enabled = false
		default:
			s.printf("Usage: /autosend on|off (currently %s)\n", onOff(cfg.Enabled))
			return false
		}
		s.updateSettings(ctx, cfg)
		s.printf("Auto-send is %s.\n", onOff(cfg.Enabled))
	case "/clear":
		s.printf("Are you sure you want to clear all booking history? [y/N] ")
		if !s.scanner.Scan() || !strings.EqualFold(strings.TrimSpace(s.scanner.Text()), "y") {
			s.printf("Kept booking history.\n")
			return false
		}
		if err := s.app.Controller.ClearHistory(ctx); err != nil {
			s.printf("History cleared locally but not in storage: %v\n", err)
			return false
		}
		s.printf("Booking history cleared.\n")
	default:
		s.printf("Unknown command %s. Type /help.\n", command)
	}
	return false
}

func (s *shell) chat(ctx context.Context, text string) {
	result, err := s.app.Controller.SendTurn(ctx, text)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage), errors.Is(err, conversation.ErrTurnInFlight):
		return
	case err != nil:
		s.printf("error: %v\n", err)
		return
	}
	s.printReply(result)
}

func (s *shell) printReply(result *conversation.TurnResult) {
	if result.Turn.Text != "" {
		s.printf("MediAssist: %s\n", result.Turn.Text)
	}
	if result.Cancel != nil {
		s.printf("✖ Cancelled: %s (%s)\n", result.Cancel.Record.PatientName, result.Cancel.Outcome)
	} else if result.Booking != nil {
		s.printf("✔ %s\n", describe(*result.Booking))
	}
	if result.Notification != nil {
		s.printf("Admin alert scheduled.\n")
	}
}

func (s *shell) printStats() {
	st := s.app.Stats()
	s.printf("Status: %s\n", st.Status())
	s.printf("Total: %d  Active: %d  Cancelled: %d  Urgent: %d\n", st.Total, st.Active, st.Cancelled, st.HighPriorityActive)
	for _, dept := range st.TopDepartments {
		s.printf("  %-20s %3d  %3d%%\n", dept.Name, dept.Count, dept.Percent)
	}
}

func (s *shell) printHistory() {
	records := s.app.Controller.Ledger().Snapshot()
	if len(records) == 0 {
		s.printf("No bookings yet.\n")
		return
	}
	for _, rec := range records {
		s.printf("%s  [%s]\n", describe(rec), rec.RecordedAt)
	}
}

func (s *shell) updateSettings(ctx context.Context, cfg notify.Config) {
	if err := s.app.Controller.UpdateNotifyConfig(ctx, cfg); err != nil {
		s.printf("Setting applied but not saved: %v\n", err)
	}
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func describe(rec booking.Record) string {
	var b strings.Builder
	if rec.IsHighPriority() {
		b.WriteString("🚨 ")
	}
	fmt.Fprintf(&b, "%s | %s | %s | %s", rec.PatientName, rec.Department, rec.Time, rec.Status)
	if rec.ContactNumber != "" {
		fmt.Fprintf(&b, " | 📞 %s", rec.ContactNumber)
	}
	return b.String()
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
