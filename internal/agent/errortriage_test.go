package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm/mock"
)

func TestErrorTriageRules(t *testing.T) {
	cases := []struct {
		message        string
		outcome        erc3.Outcome
		shouldContinue bool
	}{
		{"project not found", erc3.OutcomeOKNotFound, true},
		{"access denied for this user", erc3.OutcomeDeniedSecurity, false},
		{"validation error: limit must be positive", erc3.OutcomeClarificationNeeded, true},
		{"rate limit exceeded", erc3.OutcomeErrorInternal, true},
		{"internal error while saving", erc3.OutcomeErrorInternal, false},
		{"operation not supported", erc3.OutcomeUnsupported, false},
	}

	triage := NewErrorTriage(newTestRegistry(&mock.Provider{}), "", nil)
	for _, tc := range cases {
		analysis := triage.Analyze(context.Background(), &erc3.APIError{Status: 400, Message: tc.message}, "test")
		require.Equal(t, tc.outcome, analysis.Outcome, tc.message)
		require.Equal(t, tc.shouldContinue, analysis.ShouldContinue, tc.message)
	}
}

func TestErrorTriageFallsBackToModel(t *testing.T) {
	want := ErrorAnalysis{
		Outcome:          erc3.OutcomeClarificationNeeded,
		ShouldContinue:   true,
		Reasoning:        "the date range looks inverted",
		SuggestedMessage: "Please confirm the date range.",
	}

	provider := &mock.Provider{
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			require.NotNil(t, req.ResponseFormat)
			require.Equal(t, "error_analysis", req.ResponseFormat.Name)
			data, err := json.Marshal(want)
			require.NoError(t, err)
			return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: string(data)}}, nil
		},
	}

	triage := NewErrorTriage(newTestRegistry(provider), "", nil)
	analysis := triage.Analyze(context.Background(), &erc3.APIError{Status: 422, Message: "temporal paradox"}, "searching time entries")
	require.Equal(t, want, analysis)
}

func TestErrorTriageTotalFailureIsTerminal(t *testing.T) {
	// Empty registry: even the model fallback cannot run.
	triage := NewErrorTriage(llm.NewRegistry(), "", nil)
	analysis := triage.Analyze(context.Background(), &erc3.APIError{Status: 418, Message: "short and stout"}, "")

	require.Equal(t, erc3.OutcomeErrorInternal, analysis.Outcome)
	require.False(t, analysis.ShouldContinue)
}
