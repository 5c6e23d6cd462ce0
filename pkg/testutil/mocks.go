// Package testutil provides mock implementations for testing the
// classification pipeline without a live service.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Mathanleo/Mashreq/classifier"
)

// MockGateway is a mock implementation of classifier.Gateway for testing
type MockGateway struct {
	CompleteFunc func(ctx context.Context, prompt string) (*classifier.GatewayReply, error)

	mu        sync.Mutex
	CallCount int
	Prompts   []string
}

func (m *MockGateway) Complete(ctx context.Context, prompt string) (*classifier.GatewayReply, error) {
	m.mu.Lock()
	m.CallCount++
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}

	// Default: an empty-object reply, the service's no-match shape
	return &classifier.GatewayReply{
		Text:    "{}",
		Usage:   classifier.TokenUsage{Input: 10, Output: 2, Total: 12},
		Elapsed: 5 * time.Millisecond,
	}, nil
}

// Calls returns the number of Complete invocations so far.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// PromptAt returns the i-th prompt sent through the mock.
func (m *MockGateway) PromptAt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.Prompts) {
		return ""
	}
	return m.Prompts[i]
}

// StagedGateway replies with groupReply to the first call per utterance and
// intentReply to the second. It distinguishes stages by prompt content.
type StagedGateway struct {
	GroupReply  string
	IntentReply string

	mu          sync.Mutex
	GroupCalls  int
	IntentCalls int
}

func (g *StagedGateway) Complete(ctx context.Context, prompt string) (*classifier.GatewayReply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	reply := &classifier.GatewayReply{
		Usage:   classifier.TokenUsage{Input: 100, Output: 20, Total: 120},
		Elapsed: 10 * time.Millisecond,
	}
	if isGroupPrompt(prompt) {
		g.GroupCalls++
		reply.Text = g.GroupReply
	} else {
		g.IntentCalls++
		reply.Text = g.IntentReply
	}
	return reply, nil
}

func isGroupPrompt(prompt string) bool {
	return strings.Contains(prompt, "GROUP classifier")
}
