// Package adapters bridges the service clients to the classifier's
// interfaces.
package adapters

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/classifier"
	"github.com/Mathanleo/Mashreq/clients/azurechat"
)

// chatCompleter is the slice of azurechat.Client the gateway needs.
type chatCompleter interface {
	ChatCompletion(ctx context.Context, req azurechat.ChatCompletionRequest) (*azurechat.ChatCompletionResponse, time.Duration, error)
}

// ChatGateway adapts the azurechat client to classifier.Gateway. Each call
// sends the prompt as the sole message and maps the usage block back.
type ChatGateway struct {
	client      chatCompleter
	model       string
	maxTokens   int
	temperature float64
	log         *zap.Logger
}

// GatewayConfig carries the per-request model settings.
type GatewayConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewChatGateway(client *azurechat.Client, cfg GatewayConfig, log *zap.Logger) *ChatGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatGateway{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}
}

// Complete implements classifier.Gateway.
func (g *ChatGateway) Complete(ctx context.Context, prompt string) (*classifier.GatewayReply, error) {
	req := azurechat.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []azurechat.ChatMessage{
			{Role: azurechat.MessageRoleUser, Content: prompt},
		},
	}

	resp, elapsed, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	reply := &classifier.GatewayReply{
		Text: resp.Choices[0].Message.Content,
		Usage: classifier.TokenUsage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
			Total:  resp.Usage.TotalTokens,
		},
		Elapsed: elapsed,
	}

	g.log.Debug("gateway exchange",
		zap.String("prompt", prompt),
		zap.String("response", reply.Text),
		zap.Int("input_tokens", reply.Usage.Input),
		zap.Int("output_tokens", reply.Usage.Output),
		zap.Int("total_tokens", reply.Usage.Total),
		zap.Duration("elapsed", elapsed))

	return reply, nil
}
