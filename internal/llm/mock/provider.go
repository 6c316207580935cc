package mock

import (
	"context"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
	}, nil
}

// Scripted returns a provider that replays the given responses in order and
// keeps returning the last one afterwards.
func Scripted(responses ...llm.ChatResponse) *Provider {
	i := 0
	return &Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			resp := responses[i]
			if i < len(responses)-1 {
				i++
			}
			return resp, nil
		},
	}
}
