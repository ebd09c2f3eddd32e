package bootstrap

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/mediassist/internal/config"
)

func TestBuildLLMClientRequiresConfig(t *testing.T) {
	if _, _, err := BuildLLMClient(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildLLMClientGeminiRequiresKey(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "gemini"}
	if _, _, err := BuildLLMClient(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected error without GEMINI_API_KEY")
	}
}

func TestBuildLLMClientBedrockRequiresModel(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "bedrock", AWSRegion: "us-east-1"}
	if _, _, err := BuildLLMClient(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected error without BEDROCK_MODEL_ID")
	}
}

func TestBuildLLMClientUnknownProvider(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "palm"}
	if _, _, err := BuildLLMClient(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
