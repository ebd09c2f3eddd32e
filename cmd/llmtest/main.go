package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/mediassist/internal/app/bootstrap"
	"github.com/wolfman30/mediassist/internal/booking"
	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/conversation"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// llmtest sends a scripted triage exchange to the configured provider and
// checks that the reply carries a decodable booking block.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, closeFn, err := bootstrap.BuildLLMClient(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("build llm client: %v", err)
	}
	defer func() { _ = closeFn() }()

	req := conversation.LLMRequest{
		System: []string{conversation.SystemPrompt(time.Now())},
		Messages: []conversation.ChatMessage{
			{Role: conversation.ChatRoleUser, Content: "I have chest pain since morning. I'm Priya."},
			{Role: conversation.ChatRoleAssistant, Content: "I'm sorry to hear that, Priya. I will book this under Cardiology. I have 10:00 AM, 2:00 PM or 4:30 PM tomorrow. Which works?"},
			{Role: conversation.ChatRoleUser, Content: "10 AM tomorrow please. Yes, confirm it."},
		},
		Temperature: cfg.LLMTemperature,
	}

	fmt.Printf("provider=%s fallback=%s\n", cfg.LLMProvider, cfg.LLMFallbackProvider)

	start := time.Now()
	resp, err := client.Complete(ctx, req)
	if err != nil {
		log.Fatalf("completion failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
	}
	fmt.Printf("reply in %v (tokens in=%d out=%d)\n\n%s\n\n", time.Since(start).Round(time.Millisecond), resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Text)

	parsed := booking.ParseReply(resp.Text)
	switch {
	case parsed.Err != nil:
		fmt.Printf("❌ booking block present but unusable: %v\n", parsed.Err)
		os.Exit(1)
	case parsed.Booking == nil:
		fmt.Println("⚠️  no booking block in reply")
	default:
		b := parsed.Booking
		fmt.Printf("✅ booking: %s / %s / %s (status=%s priority=%s)\n", b.PatientName, b.Department, b.Time, b.Status, b.Priority)
	}
}
