package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
)

// UnresolvedUserContext is returned when the sub-agent cannot answer;
// failures here degrade to this reply instead of aborting the parent loop.
const UnresolvedUserContext = "unable to resolve user context"

// CurrentUserAgent answers narrow questions about the acting user with its
// own short-lived query cycle: a minimal system prompt over facts gathered
// once per task, with no access to the parent conversation log.
type CurrentUserAgent struct {
	registry *llm.Registry
	model    string
	store    Store
	logger   *zap.Logger

	mu   sync.Mutex
	data []string
}

// NewCurrentUserAgent constructs a sub-agent scoped to one task.
func NewCurrentUserAgent(registry *llm.Registry, model string, store Store, logger *zap.Logger) *CurrentUserAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrentUserAgent{
		registry: registry,
		model:    model,
		store:    store,
		logger:   logger,
	}
}

// Ask answers one question about the current user. Any internal failure
// degrades to UnresolvedUserContext.
func (a *CurrentUserAgent) Ask(ctx context.Context, question string) string {
	facts, err := a.gather(ctx)
	if err != nil {
		a.logger.Warn("user context gathering failed", zap.Error(err))
		return UnresolvedUserContext
	}

	provider, route, err := a.registry.Resolve(a.model)
	if err != nil {
		a.logger.Warn("user context model unavailable", zap.Error(err))
		return UnresolvedUserContext
	}

	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return UnresolvedUserContext
	}

	systemPrompt := fmt.Sprintf(
		"You are an assistant providing information about the current user in the Aetherion system.\n\n# Current user info:\n%s\n",
		factsJSON,
	)

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model: route.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: question},
		},
		MaxTokens:   route.MaxTokens,
		Temperature: route.Temperature,
	})
	if err != nil {
		a.logger.Warn("user context query failed", zap.Error(err))
		return UnresolvedUserContext
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if answer == "" {
		return UnresolvedUserContext
	}
	return answer
}

// gather resolves the identity once and caches it for the task, so
// repeated questions do not re-query the store.
func (a *CurrentUserAgent) gather(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.data != nil {
		return a.data, nil
	}

	var facts []string

	identity, err := a.store.WhoAmI(ctx)
	if err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}
	if identity.CurrentUser == "" {
		facts = append(facts, "No current user found.")
		a.data = facts
		return a.data, nil
	}

	record, err := a.store.GetEmployee(ctx, identity.CurrentUser)
	if err != nil {
		return nil, fmt.Errorf("employee lookup: %w", err)
	}
	if record.Employee == nil {
		facts = append(facts, "No employee data found.")
		a.data = facts
		return a.data, nil
	}

	employeeJSON, err := json.Marshal(record.Employee)
	if err != nil {
		return nil, err
	}
	facts = append(facts, string(employeeJSON))

	hits, err := a.store.SearchWiki(ctx, record.Employee.Name)
	if err != nil {
		return nil, fmt.Errorf("wiki search: %w", err)
	}
	if len(hits.Results) == 0 {
		facts = append(facts, "No wiki data about the user found.")
		a.data = facts
		return a.data, nil
	}

	for _, hit := range hits.Results {
		doc, err := a.store.LoadWiki(ctx, hit.Path)
		if err != nil {
			return nil, fmt.Errorf("load wiki %s: %w", hit.Path, err)
		}
		extracted, err := a.extract(ctx, record.Employee.Name, doc.Content)
		if err != nil {
			return nil, err
		}
		facts = append(facts, extracted)
	}

	a.data = facts
	return a.data, nil
}

// extract pulls facts about one person out of a wiki document.
func (a *CurrentUserAgent) extract(ctx context.Context, name, content string) (string, error) {
	provider, route, err := a.registry.Resolve(a.model)
	if err != nil {
		return "", err
	}

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model: route.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: fmt.Sprintf("Extract information about the person %q", name)},
			{Role: llm.RoleUser, Content: content},
		},
		MaxTokens:   route.MaxTokens,
		Temperature: route.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("extract user info: %w", err)
	}

	return strings.TrimSpace(resp.Message.Content), nil
}
