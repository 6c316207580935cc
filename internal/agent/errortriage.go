package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/schema"
)

// ErrorAnalysis classifies one store failure: the outcome to report and
// whether the reasoning loop should keep going.
type ErrorAnalysis struct {
	Outcome          erc3.Outcome `json:"outcome" jsonschema:"description=the appropriate outcome for this error,enum=ok_answer,enum=ok_not_found,enum=denied_security,enum=none_clarification_needed,enum=none_unsupported,enum=error_internal,enum=ok_with_parameter_adjustment"`
	ShouldContinue   bool         `json:"should_continue" jsonschema:"description=whether the agent should continue processing or stop"`
	Reasoning        string       `json:"reasoning" jsonschema:"description=brief explanation of the classification"`
	SuggestedMessage string       `json:"suggested_message" jsonschema:"description=user-friendly message to include in the response"`
}

// ErrorTriage classifies store API errors: a rule table handles the common
// patterns, an LLM structured call covers the rest.
type ErrorTriage struct {
	registry *llm.Registry
	model    string
	logger   *zap.Logger
}

// NewErrorTriage builds a triage agent.
func NewErrorTriage(registry *llm.Registry, model string, logger *zap.Logger) *ErrorTriage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorTriage{registry: registry, model: model, logger: logger}
}

// Analyze classifies an API error, given a short description of what the
// agent was attempting. It always returns a usable analysis; when even the
// LLM fallback fails the error is reported as internal and terminal.
func (t *ErrorTriage) Analyze(ctx context.Context, apiErr *erc3.APIError, opContext string) ErrorAnalysis {
	if quick, ok := quickClassify(apiErr); ok {
		t.logger.Debug("error triage by rule", zap.String("outcome", string(quick.Outcome)))
		return quick
	}

	analysis, err := t.llmAnalyze(ctx, apiErr, opContext)
	if err != nil {
		t.logger.Warn("error triage fallback failed", zap.Error(err))
		return ErrorAnalysis{
			Outcome:          erc3.OutcomeErrorInternal,
			ShouldContinue:   false,
			Reasoning:        "error could not be classified",
			SuggestedMessage: "An internal error occurred. Unable to complete the request.",
		}
	}
	return analysis
}

type triageRule struct {
	patterns []string
	analysis ErrorAnalysis
}

var triageRules = []triageRule{
	{
		patterns: []string{"not found", "does not exist", "no such", "cannot find"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeOKNotFound,
			ShouldContinue:   true,
			Reasoning:        "resource not found; the agent can continue with an alternative approach",
			SuggestedMessage: "The requested resource was not found. This may be expected.",
		},
	},
	{
		patterns: []string{"access denied", "forbidden", "unauthorized", "permission", "not allowed", "insufficient privileges"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeDeniedSecurity,
			ShouldContinue:   false,
			Reasoning:        "the user lacks access; stop and inform them",
			SuggestedMessage: "Access denied. You do not have permission to perform this action.",
		},
	},
	{
		patterns: []string{"invalid", "validation error", "bad request", "malformed", "must be", "cannot be negative"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeClarificationNeeded,
			ShouldContinue:   true,
			Reasoning:        "parameter mistake; the agent can retry with corrected values",
			SuggestedMessage: "Invalid request parameters. Adjusting and retrying.",
		},
	},
	{
		patterns: []string{"rate limit", "too many requests", "throttled", "try again"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeErrorInternal,
			ShouldContinue:   true,
			Reasoning:        "temporary throttling; a later attempt can succeed",
			SuggestedMessage: "Service temporarily throttled. Will retry.",
		},
	},
	{
		patterns: []string{"internal error", "server error", "500", "503"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeErrorInternal,
			ShouldContinue:   false,
			Reasoning:        "server-side failure; cannot proceed",
			SuggestedMessage: "An internal server error occurred. Unable to complete the request.",
		},
	},
	{
		patterns: []string{"not supported", "not implemented", "unsupported"},
		analysis: ErrorAnalysis{
			Outcome:          erc3.OutcomeUnsupported,
			ShouldContinue:   false,
			Reasoning:        "the operation is not supported by the system",
			SuggestedMessage: "This operation is not supported by the system.",
		},
	},
}

// quickClassify matches the error text against the rule table. The second
// result is false when the error needs LLM analysis.
func quickClassify(apiErr *erc3.APIError) (ErrorAnalysis, bool) {
	message := strings.ToLower(apiErr.Message)
	detail := strings.ToLower(apiErr.Detail)

	for _, rule := range triageRules {
		for _, p := range rule.patterns {
			if strings.Contains(message, p) || strings.Contains(detail, p) {
				return rule.analysis, true
			}
		}
	}
	return ErrorAnalysis{}, false
}

const triageSystemPrompt = `You are an error analysis expert for the Aetherion business system.

Your task is to analyze API errors and determine:
1. The appropriate outcome category
2. Whether the agent should continue processing or stop
3. A clear explanation of your reasoning

Rules:
- Negative numbers for pagination errors indicate a server issue.

Outcome categories:
- ok_answer: Successful response with data
- ok_not_found: Resource not found (expected, can continue)
- denied_security: Access/permission denied (stop, inform user)
- none_clarification_needed: Invalid parameters or need clarification (can retry)
- none_unsupported: Operation not supported (stop, inform user)
- error_internal: Server/system error (usually stop)

Guidelines for should_continue:
- Continue: not found, validation errors, temporary issues, retry possible with a different approach
- Stop: security denials, internal errors, unsupported operations, unrecoverable failures`

func (t *ErrorTriage) llmAnalyze(ctx context.Context, apiErr *erc3.APIError, opContext string) (ErrorAnalysis, error) {
	provider, route, err := t.registry.Resolve(t.model)
	if err != nil {
		return ErrorAnalysis{}, err
	}

	analysisSchema, err := schema.Marshal(schema.Reflect(&ErrorAnalysis{}))
	if err != nil {
		return ErrorAnalysis{}, fmt.Errorf("build analysis schema: %w", err)
	}

	if opContext == "" {
		opContext = "No additional context provided"
	}
	userPrompt := fmt.Sprintf(
		"Analyze this API error:\n\nError message: %s\nError detail: %s\nContext: %s\n",
		apiErr.Message, apiErr.Detail, opContext,
	)

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model: route.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: triageSystemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		MaxTokens:   500,
		Temperature: route.Temperature,
		ResponseFormat: &llm.ResponseFormat{
			Name:   "error_analysis",
			Schema: analysisSchema,
			Strict: true,
		},
	})
	if err != nil {
		return ErrorAnalysis{}, fmt.Errorf("triage query: %w", err)
	}

	var analysis ErrorAnalysis
	if err := json.Unmarshal([]byte(resp.Message.Content), &analysis); err != nil {
		return ErrorAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return analysis, nil
}
