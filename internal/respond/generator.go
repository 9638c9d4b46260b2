package respond

import (
	"context"
	"fmt"

	innboxopenai "innbox/internal/openai"

	"github.com/sashabaranov/go-openai"
)

// ChatGenerator adapts the chat completion client to the Generator contract
type ChatGenerator struct {
	client      *innboxopenai.Client
	maxTokens   int
	temperature float32
}

// NewChatGenerator creates a generator with fixed sampling parameters
func NewChatGenerator(client *innboxopenai.Client, maxTokens int, temperature float32) *ChatGenerator {
	return &ChatGenerator{client: client, maxTokens: maxTokens, temperature: temperature}
}

// Complete sends the assembled prompt as a single user message and returns
// the first choice
func (g *ChatGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	resp, err := g.client.CreateChatCompletion(ctx, messages, g.maxTokens, g.temperature)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response had no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
