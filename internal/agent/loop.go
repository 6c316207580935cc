package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/observability"
)

// Status is the terminal state of a task run.
type Status string

const (
	StatusCompleted       Status = "completed"
	StatusBudgetExhausted Status = "budget_exhausted"
	StatusFatal           Status = "fatal"
)

// Result is what a finished (or aborted) task run reports back to the
// benchmark harness.
type Result struct {
	Status  Status
	Outcome erc3.Outcome
	Message string
	Links   []erc3.AgentLink
	Steps   int
	Log     *Transcript
}

// UsageSink receives per-call token accounting, typically forwarded to the
// benchmark platform. Delivery is best-effort.
type UsageSink func(ctx context.Context, report erc3.LLMCallReport)

// Options tune a Runner. Zero values pick the documented defaults.
type Options struct {
	// Model is the logical registry name for the reasoning model. Empty
	// selects the registry default.
	Model string
	// SubAgentModel drives the current-user sub-agent; empty falls back
	// to Model.
	SubAgentModel string
	// MaxSteps bounds loop iterations (default 20).
	MaxSteps int
	// MaxTokens caps each completion (default 16384).
	MaxTokens int

	Metrics *observability.Metrics
	Usage   UsageSink
	Logger  *zap.Logger
}

// Runner drives the bounded next-step loop for a single benchmark task.
// Each iteration asks the model for exactly one schema-constrained decision
// and dispatches exactly one operation. Runners are single-use: the
// current-user cache is scoped to one task.
type Runner struct {
	registry   *llm.Registry
	store      Store
	dispatcher *dispatcher
	schema     json.RawMessage
	opts       Options
	logger     *zap.Logger
}

// NewRunner wires a runner against a task-scoped store.
func NewRunner(registry *llm.Registry, store Store, opts Options) (*Runner, error) {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 20
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 16384
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	subModel := opts.SubAgentModel
	if subModel == "" {
		subModel = opts.Model
	}

	schema, err := DecisionSchema()
	if err != nil {
		return nil, fmt.Errorf("build decision schema: %w", err)
	}

	r := &Runner{
		registry: registry,
		store:    store,
		schema:   schema,
		opts:     opts,
		logger:   opts.Logger,
	}
	r.dispatcher = &dispatcher{
		store:   store,
		users:   NewCurrentUserAgent(registry, subModel, store, opts.Logger),
		triage:  NewErrorTriage(registry, subModel, opts.Logger),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	return r, nil
}

// Run executes the loop until the model responds, the step budget runs out,
// or a fault makes further progress impossible. The returned error is
// non-nil only for fatal runs; the Result is always populated.
func (r *Runner) Run(ctx context.Context, task erc3.TaskInfo) (Result, error) {
	ctx, span := observability.StartTaskSpan(ctx, task.TaskID, task.SpecID)
	defer span.End()
	started := time.Now()

	provider, route, err := r.registry.Resolve(r.opts.Model)
	if err != nil {
		return r.fatal(nil, 0, started, err)
	}

	systemPrompt, err := BuildSystemPrompt(ctx, r.store)
	if err != nil {
		return r.fatal(nil, 0, started, fmt.Errorf("build system prompt: %w", err))
	}
	log := NewTranscript(systemPrompt, task.TaskText)

	decodeFailures := 0
	for step := 1; step <= r.opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return r.fatal(log, step, started, err)
		}

		resp, err := r.queryModel(ctx, provider, route, task, log)
		if err != nil {
			return r.fatal(log, step, started, fmt.Errorf("model call: %w", err))
		}

		decision, err := DecodeNextStep(resp.Message.Content)
		if err != nil {
			decodeFailures++
			r.logger.Warn("decision decode failed",
				zap.String("task", task.TaskID),
				zap.Int("step", step),
				zap.Int("attempt", decodeFailures),
				zap.Error(err),
			)
			if decodeFailures > 1 {
				return r.fatal(log, step, started, fmt.Errorf("decision decode failed twice: %w", err))
			}
			log.Append(llm.ChatMessage{
				Role:       llm.RoleTool,
				Name:       "decision_error",
				ToolCallID: stepID(step),
				Content:    fmt.Sprintf("the previous response did not match the decision schema (%v); respond again with a single valid decision", err),
			})
			continue
		}
		decodeFailures = 0

		op := decision.Function
		args, err := erc3.EncodeOperation(op)
		if err != nil {
			return r.fatal(log, step, started, fmt.Errorf("encode %s: %w", op.Tool(), err))
		}
		log.Append(llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: decision.FirstPlannedStep(),
			ToolCalls: []llm.ToolCall{{
				ID:   stepID(step),
				Type: "function",
				Function: llm.ToolFunctionCall{
					Name:      op.Tool(),
					Arguments: args,
				},
			}},
		})

		r.logger.Info("next step",
			zap.String("task", task.TaskID),
			zap.Int("step", step),
			zap.String("tool", op.Tool()),
			zap.String("plan", decision.FirstPlannedStep()),
		)

		// The final response closes the log; nothing is dispatched for it.
		if final, ok := op.(*erc3.ProvideAgentResponse); ok {
			res := Result{
				Status:  StatusCompleted,
				Outcome: final.Outcome,
				Message: final.Message,
				Links:   final.Links,
				Steps:   step,
				Log:     log,
			}
			r.record(res, started)
			return res, nil
		}

		out := r.dispatcher.dispatch(ctx, op)
		log.Append(llm.ChatMessage{
			Role:       llm.RoleTool,
			Name:       op.Tool(),
			ToolCallID: stepID(step),
			Content:    out.content,
		})
		if out.terminal != nil {
			res := *out.terminal
			res.Steps = step
			res.Log = log
			r.record(res, started)
			return res, nil
		}
	}

	res := Result{
		Status:  StatusBudgetExhausted,
		Outcome: erc3.OutcomeClarificationNeeded,
		Message: "no answer reached within the step budget",
		Steps:   r.opts.MaxSteps,
		Log:     log,
	}
	r.record(res, started)
	return res, nil
}

func (r *Runner) queryModel(ctx context.Context, provider llm.Provider, route llm.ModelRoute, task erc3.TaskInfo, log *Transcript) (llm.ChatResponse, error) {
	ctx, span := observability.StartModelSpan(ctx, route.Model)
	defer span.End()

	callStart := time.Now()
	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model:       route.Model,
		Messages:    log.Messages(),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: route.Temperature,
		ResponseFormat: &llm.ResponseFormat{
			Name:   "next_step",
			Schema: r.schema,
			Strict: true,
		},
	})
	elapsed := time.Since(callStart)

	status := "ok"
	if err != nil {
		status = "error"
	}
	r.opts.Metrics.RecordModelCall(route.Model, status, elapsed, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	observability.AnnotateModelSpan(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if err == nil && r.opts.Usage != nil {
		r.opts.Usage(ctx, erc3.LLMCallReport{
			TaskID:           task.TaskID,
			Model:            route.Model,
			DurationSec:      elapsed.Seconds(),
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		})
	}
	return resp, err
}

func (r *Runner) fatal(log *Transcript, step int, started time.Time, err error) (Result, error) {
	res := Result{
		Status:  StatusFatal,
		Outcome: erc3.OutcomeErrorInternal,
		Message: "internal agent error: " + err.Error(),
		Steps:   step,
		Log:     log,
	}
	r.record(res, started)
	return res, err
}

func (r *Runner) record(res Result, started time.Time) {
	r.opts.Metrics.RecordTask(string(res.Status), string(res.Outcome), time.Since(started))
}

func stepID(step int) string {
	return fmt.Sprintf("step_%d", step)
}
