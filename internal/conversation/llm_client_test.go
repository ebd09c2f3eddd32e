package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/mediassist/internal/observability/metrics"
)

// mockBedrockClient implements bedrockConverseAPI for testing.
type mockBedrockClient struct {
	response string
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: m.response},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(8),
			TotalTokens:  aws.Int32(20),
		},
	}, nil
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	mock := &mockBedrockClient{response: "Hello! May I have your name?\n```json\n{}\n```\n"}
	client := NewBedrockLLMClient(mock, "anthropic.claude-test")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System: []string{"be helpful", " "},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "hi"},
			{Role: ChatRoleAssistant, Content: "hello"},
			{Role: ChatRoleSystem, Content: "extra rule"},
			{Role: ChatRoleUser, Content: "book me"},
		},
		Temperature: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, mock.response, resp.Text, "reply text is passed through untrimmed")
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int32(20), resp.Usage.TotalTokens)

	assert.Equal(t, "anthropic.claude-test", aws.ToString(mock.input.ModelId))
	assert.Len(t, mock.input.System, 2)
	assert.Len(t, mock.input.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleAssistant, mock.input.Messages[1].Role)
	require.NotNil(t, mock.input.InferenceConfig)
	assert.InDelta(t, 0.4, aws.ToFloat32(mock.input.InferenceConfig.Temperature), 0.0001)
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	_, err := NewBedrockLLMClient(&mockBedrockClient{}, "").Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "model id is required")

	_, err = NewBedrockLLMClient(&mockBedrockClient{}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: "tool", Content: "x"}},
	})
	assert.ErrorContains(t, err, "unsupported role")

	boom := errors.New("throttled")
	_, err = NewBedrockLLMClient(&mockBedrockClient{err: boom}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}},
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewBedrockLLMClient(&mockBedrockClient{response: "  "}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}},
	})
	assert.ErrorContains(t, err, "no text content")
}

func TestBedrockInference_NegativeTemperatureOmitted(t *testing.T) {
	assert.Nil(t, bedrockInference(LLMRequest{Temperature: -1}))
}

func TestFallbackLLMClient(t *testing.T) {
	failing := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		return LLMResponse{}, errors.New("primary down")
	})
	working := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		return LLMResponse{Text: "from fallback"}, nil
	})
	reg := prometheus.NewRegistry()
	m := metrics.NewSessionMetrics(reg)

	resp, err := NewFallbackLLMClient(failing, working, nil, WithFallbackMetrics(m)).Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)

	_, err = NewFallbackLLMClient(failing, nil, nil, WithFallbackMetrics(m)).Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "primary down")

	resp, err = NewFallbackLLMClient(working, failing, nil, WithFallbackMetrics(m)).Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)

	assert.Equal(t, 1.0, counterValue(t, reg, "mediassist_session_model_fallbacks_total", "result", "recovered"))
	assert.Equal(t, 1.0, counterValue(t, reg, "mediassist_session_model_fallbacks_total", "result", "unavailable"))
}

func TestFallbackLLMClient_BothFail(t *testing.T) {
	failing := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		return LLMResponse{}, errors.New("primary down")
	})
	alsoFailing := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		return LLMResponse{}, errors.New("throttled")
	})
	reg := prometheus.NewRegistry()

	_, err := NewFallbackLLMClient(failing, alsoFailing, nil, WithFallbackMetrics(metrics.NewSessionMetrics(reg))).
		Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary down")
	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, 1.0, counterValue(t, reg, "mediassist_session_model_fallbacks_total", "result", "failed"))
}

func TestFallbackLLMClient_CancelledTurnIsNotReplayed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		cancel()
		return LLMResponse{}, ctx.Err()
	})
	called := false
	fallback := LLMClientFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		called = true
		return LLMResponse{Text: "late"}, nil
	})

	_, err := NewFallbackLLMClient(primary, fallback, nil).Complete(ctx, LLMRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGeminiHistory_MapsRoles(t *testing.T) {
	history := geminiHistory([]ChatMessage{
		{Role: ChatRoleSystem, Content: "ignored"},
		{Role: ChatRoleUser, Content: "hi"},
		{Role: ChatRoleAssistant, Content: "hello"},
		{Role: ChatRoleUser, Content: "  "},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
}

func TestNewGeminiLLMClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiLLMClient(context.Background(), " ", "")
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(fixedClock())

	assert.Contains(t, prompt, `"MediAssist," an advanced AI Hospital Agent for City Hospital`)
	assert.Contains(t, prompt, "**Current Date:** Sun Mar 09 2025")
	assert.Contains(t, prompt, `"Chest pain/Dizziness" -> Cardiology`)
	assert.Contains(t, prompt, "```json\n{ \"status\": \"cancelled\"")
	assert.NotContains(t, prompt, "{{")

	assert.Contains(t, systemPromptFor("St. Mary's", fixedClock()), "Hospital Agent for St. Mary's")
}
