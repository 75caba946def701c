package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	params anthropic.MessageNewParams
	reply  *anthropic.Message
	err    error
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = body
	return f.reply, f.err
}

func TestAnthropicClient_GenerateJSON(t *testing.T) {
	fake := &fakeMessages{reply: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: "Here you go:\n```json\n{\"ok\": true}\n```"},
	}}}
	client := &AnthropicClient{messages: fake, config: DefaultAnthropicConfig()}

	out, err := client.GenerateJSON(context.Background(), "prompt", TierAdvanced)
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
	assert.Equal(t, anthropic.Model("claude-sonnet-4-0"), fake.params.Model)
	assert.Equal(t, int64(8192), fake.params.MaxTokens)
	require.Len(t, fake.params.Messages, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, fake.params.Messages[0].Role)
}

func TestAnthropicClient_Errors(t *testing.T) {
	client := &AnthropicClient{messages: &fakeMessages{err: errors.New("overloaded")}, config: DefaultAnthropicConfig()}
	_, err := client.GenerateContent(context.Background(), "p", TierLite)
	assert.ErrorContains(t, err, "overloaded")

	client = &AnthropicClient{messages: &fakeMessages{reply: &anthropic.Message{}}, config: DefaultAnthropicConfig()}
	_, err = client.GenerateContent(context.Background(), "p", TierLite)
	assert.ErrorContains(t, err, "empty response")

	client = &AnthropicClient{messages: &fakeMessages{}, config: &Config{Models: map[ModelTier]string{}}}
	_, err = client.GenerateContent(context.Background(), "p", TierLite)
	assert.ErrorContains(t, err, "no model configured")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultAnthropicConfig(), "")
	assert.Error(t, err)
	_, err = NewClient(context.Background(), DefaultGeminiConfig(), "")
	assert.Error(t, err)
	_, err = NewClient(context.Background(), &Config{Provider: "openai"}, "key")
	assert.Error(t, err)
}
