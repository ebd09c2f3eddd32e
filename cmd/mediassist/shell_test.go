package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/mediassist/internal/app"
	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/conversation"
	"github.com/wolfman30/mediassist/internal/notify"
	"github.com/wolfman30/mediassist/internal/persistence"
	"github.com/wolfman30/mediassist/pkg/logging"
)

const bookingReply = "All set, Priya.\n```json\n" +
	`{"status":"confirmed","patient_name":"Priya","department":"Cardiology","time":"Tomorrow 10:00 AM","priority":"normal"}` +
	"\n```"

func newTestShell(t *testing.T, input string) (*shell, *bytes.Buffer, *notify.ManualExecutor) {
	t.Helper()
	replies := []string{"Welcome to City Hospital!", bookingReply}
	llm := conversation.LLMClientFunc(func(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
		next := "ok"
		if len(replies) > 0 {
			next, replies = replies[0], replies[1:]
		}
		return conversation.LLMResponse{Text: next}, nil
	})

	var out bytes.Buffer
	exec := &notify.ManualExecutor{}
	a, err := app.Build(context.Background(), &appconfig.Config{NotifyDelay: time.Second, MetricsEnabled: true},
		logging.NewWithWriter("error", &bytes.Buffer{}),
		app.WithLLMClient(llm),
		app.WithStore(persistence.NewMemoryStore()),
		app.WithExecutor(exec),
		app.WithDispatcher(newTerminalDispatcher(&out)),
		app.WithRegistry(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return newShell(a, strings.NewReader(input), &out), &out, exec
}

func TestShell_BookingFlow(t *testing.T) {
	input := strings.Join([]string{
		"/phone +91 98765 43210",
		"/autosend on",
		"   ",
		"I have chest pain, book me for tomorrow, I'm Priya",
		"/stats",
		"/history",
		"/quit",
	}, "\n")
	sh, out, exec := newTestShell(t, input)

	require.NoError(t, sh.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "MediAssist: Welcome to City Hospital!")
	assert.Contains(t, text, "MediAssist: All set, Priya.")
	assert.Contains(t, text, "✔ Priya | Cardiology | Tomorrow 10:00 AM | confirmed")
	assert.Contains(t, text, "Admin alert scheduled.")
	assert.Contains(t, text, "Status: Stable")
	assert.Contains(t, text, "Total: 1  Active: 1  Cancelled: 0  Urgent: 0")
	assert.Contains(t, text, "100%")
	assert.NotContains(t, text, "```json")

	require.Equal(t, 1, exec.RunPending())
	assert.Contains(t, out.String(), "📲 Open WhatsApp to send: https://wa.me/919876543210?text=")
}

func TestShell_ClearRequiresConfirmation(t *testing.T) {
	sh, out, _ := newTestShell(t, "")
	ctx := context.Background()
	_, err := sh.app.Controller.Start(ctx)
	require.NoError(t, err)
	_, err = sh.app.Controller.SendTurn(ctx, "book Priya")
	require.NoError(t, err)

	sh.scanner = newShell(sh.app, strings.NewReader("n\n"), out).scanner
	sh.handle(ctx, "/clear")
	assert.Equal(t, 1, sh.app.Controller.Ledger().Len())
	assert.Contains(t, out.String(), "Kept booking history.")

	sh.scanner = newShell(sh.app, strings.NewReader("y\n"), out).scanner
	sh.handle(ctx, "/clear")
	assert.Equal(t, 0, sh.app.Controller.Ledger().Len())
	assert.Contains(t, out.String(), "Booking history cleared.")
}

func TestShell_Commands(t *testing.T) {
	sh, out, _ := newTestShell(t, "")
	ctx := context.Background()

	assert.False(t, sh.handle(ctx, "/report"))
	assert.Contains(t, out.String(), "No active appointments today.")

	sh.handle(ctx, "/autosend maybe")
	assert.Contains(t, out.String(), "Usage: /autosend on|off (currently off)")

	sh.handle(ctx, "/bogus")
	assert.Contains(t, out.String(), "Unknown command /bogus")

	sh.handle(ctx, "/send-report")
	assert.Contains(t, out.String(), "No admin number set")
	assert.Contains(t, out.String(), "https://wa.me/?text=No%20active%20appointments%20today.")

	assert.True(t, sh.handle(ctx, "/quit"))
}

func TestShell_Metrics(t *testing.T) {
	sh, out, _ := newTestShell(t, "")
	ctx := context.Background()

	sh.handle(ctx, "hello")
	sh.handle(ctx, "/metrics")

	assert.Contains(t, out.String(), "# TYPE mediassist_session_turns_total counter")
	assert.Contains(t, out.String(), `mediassist_session_turns_total{outcome="reply"} 1`)
}
