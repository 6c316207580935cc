package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm/mock"
)

func TestCurrentUserAgentCachesFacts(t *testing.T) {
	store := newFakeStore()
	provider := &mock.Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			require.Contains(t, req.Messages[0].Content, "Dana Reeve")
			return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "Dana is an engineer."}}, nil
		},
	}

	sub := NewCurrentUserAgent(newTestRegistry(provider), "", store, nil)

	require.Equal(t, "Dana is an engineer.", sub.Ask(context.Background(), "what is my role?"))
	require.Equal(t, "Dana is an engineer.", sub.Ask(context.Background(), "am I an engineer?"))
	require.Equal(t, 1, store.whoamiCalls, "facts are gathered once per task")
}

func TestCurrentUserAgentPublicAccess(t *testing.T) {
	store := newFakeStore()
	store.identity.CurrentUser = ""

	var systemPrompt string
	provider := &mock.Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			systemPrompt = req.Messages[0].Content
			return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "There is no signed-in user."}}, nil
		},
	}

	sub := NewCurrentUserAgent(newTestRegistry(provider), "", store, nil)
	answer := sub.Ask(context.Background(), "who am I?")

	require.Equal(t, "There is no signed-in user.", answer)
	require.Contains(t, systemPrompt, "No current user found.")
}

func TestCurrentUserAgentDegradesOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.whoamiErr = errors.New("store offline")

	sub := NewCurrentUserAgent(newTestRegistry(&mock.Provider{}), "", store, nil)
	require.Equal(t, UnresolvedUserContext, sub.Ask(context.Background(), "who am I?"))
}

func TestCurrentUserAgentDegradesOnModelFailure(t *testing.T) {
	store := newFakeStore()
	provider := &mock.Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			return llm.ChatResponse{}, errors.New("model unavailable")
		},
	}

	sub := NewCurrentUserAgent(newTestRegistry(provider), "", store, nil)
	require.Equal(t, UnresolvedUserContext, sub.Ask(context.Background(), "who am I?"))
}

func TestCurrentUserAgentExtractsWikiFacts(t *testing.T) {
	store := newFakeStore()
	store.wikiHits = []erc3.WikiHit{{Path: "people/dana.md"}}

	calls := 0
	provider := &mock.Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			calls++
			if strings.HasPrefix(req.Messages[0].Content, "Extract information") {
				return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "Dana leads the Apollo project."}}, nil
			}
			require.Contains(t, req.Messages[0].Content, "Dana leads the Apollo project.")
			return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "You lead Apollo."}}, nil
		},
	}

	sub := NewCurrentUserAgent(newTestRegistry(provider), "", store, nil)
	require.Equal(t, "You lead Apollo.", sub.Ask(context.Background(), "which projects do I lead?"))
	require.Equal(t, 2, calls, "one extraction per wiki hit plus the answer call")
}
