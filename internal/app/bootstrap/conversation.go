package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/conversation"
	"github.com/wolfman30/mediassist/internal/observability/metrics"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// BuildLLMClient wires the configured model provider, wrapped with a
// fallback provider when one is configured. m may be nil.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.SessionMetrics) (conversation.LLMClient, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primary, closePrimary, err := buildProvider(ctx, cfg, cfg.LLMProvider)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("model provider configured", "provider", cfg.LLMProvider)

	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" || fallbackName == cfg.LLMProvider {
		return primary, closePrimary, nil
	}

	fallback, closeFallback, err := buildProvider(ctx, cfg, fallbackName)
	if err != nil {
		logger.Warn("fallback model provider unavailable", "provider", fallbackName, "error", err)
		return primary, closePrimary, nil
	}
	logger.Info("fallback model provider configured", "provider", fallbackName)

	closeBoth := func() error {
		return errors.Join(closePrimary(), closeFallback())
	}
	return conversation.NewFallbackLLMClient(primary, fallback, logger, conversation.WithFallbackMetrics(m)), closeBoth, nil
}

func buildProvider(ctx context.Context, cfg *appconfig.Config, provider string) (conversation.LLMClient, func() error, error) {
	noop := func() error { return nil }

	switch provider {
	case "", "gemini":
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		return client, client.Close, nil
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), noop, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown llm provider %q", provider)
	}
}
