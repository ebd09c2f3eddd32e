package conversation

import (
	"context"
	"fmt"

	"github.com/wolfman30/mediassist/internal/observability/metrics"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// FallbackLLMClient sends a turn to a second provider when the primary
// model fails, so the desk only shows the apology when both are down.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
	metrics  *metrics.SessionMetrics
}

// FallbackOption customizes a FallbackLLMClient.
type FallbackOption func(*FallbackLLMClient)

// WithFallbackMetrics counts primary failures by how the fallback fared.
func WithFallbackMetrics(m *metrics.SessionMetrics) FallbackOption {
	return func(c *FallbackLLMClient) {
		c.metrics = m
	}
}

// NewFallbackLLMClient wraps primary. A nil fallback makes it a passthrough
// that still counts primary failures.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger, opts ...FallbackOption) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	c := &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if c.fallback == nil {
		c.metrics.ObserveFallback("unavailable")
		return LLMResponse{}, err
	}
	// A cancelled turn must not be replayed on another provider.
	if ctx.Err() != nil {
		c.metrics.ObserveFallback("unavailable")
		return LLMResponse{}, err
	}

	c.logger.Warn("conversation: primary model failed, trying fallback", "error", err)
	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.metrics.ObserveFallback("failed")
		return LLMResponse{}, fmt.Errorf("conversation: fallback model failed after primary error %v: %w", err, fallbackErr)
	}

	c.metrics.ObserveFallback("recovered")
	c.logger.Info("conversation: fallback model answered", "history_len", len(req.Messages))
	return resp, nil
}
