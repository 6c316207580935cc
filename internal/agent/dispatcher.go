package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/observability"
)

// Store is the slice of the ERC3 task client the agent needs. It is
// satisfied by *erc3.TaskClient.
type Store interface {
	Dispatch(ctx context.Context, op erc3.Operation) (json.RawMessage, error)
	WhoAmI(ctx context.Context) (*erc3.Identity, error)
	GetEmployee(ctx context.Context, id string) (*erc3.EmployeeRecord, error)
	SearchWiki(ctx context.Context, query string) (*erc3.WikiSearchResult, error)
	LoadWiki(ctx context.Context, file string) (*erc3.WikiFile, error)
}

// dispatcher executes exactly one decoded operation and renders its result
// for the conversation log. Remote faults become structured log entries,
// never escalated errors.
type dispatcher struct {
	store   Store
	users   *CurrentUserAgent
	triage  *ErrorTriage
	metrics *observability.Metrics
	logger  *zap.Logger
}

// dispatchResult carries the tool-result payload, plus a forced terminal
// result when error triage decides the task cannot proceed.
type dispatchResult struct {
	content  string
	terminal *Result
}

func (d *dispatcher) dispatch(ctx context.Context, op erc3.Operation) dispatchResult {
	ctx, span := observability.StartDispatchSpan(ctx, op.Tool())
	defer span.End()

	switch op := op.(type) {
	case *CurrentUserQuestion:
		answer := d.users.Ask(ctx, op.Question)
		d.metrics.RecordDispatch(op.Tool(), "ok")
		return dispatchResult{content: answer}

	case *erc3.ProvideAgentResponse:
		// Pure loop signal: the runner terminates on it before dispatch.
		return dispatchResult{}

	case *erc3.ListProjects, *erc3.ListEmployees, *erc3.ListCustomers,
		*erc3.GetProject, *erc3.GetEmployee, *erc3.GetCustomer, *erc3.GetTimeEntry,
		*erc3.SearchProjects, *erc3.SearchEmployees, *erc3.SearchCustomers,
		*erc3.SearchTimeEntries, *erc3.LogTimeEntry, *erc3.UpdateTimeEntry,
		*erc3.UpdateProjectTeam, *erc3.UpdateProjectStatus, *erc3.UpdateEmployeeInfo,
		*erc3.TimeSummaryByProject, *erc3.TimeSummaryByEmployee:
		return d.remote(ctx, op)

	default:
		// Unreachable while the decision union and this switch agree.
		d.metrics.RecordDispatch(op.Tool(), "unhandled")
		return dispatchResult{content: fmt.Sprintf(`{"error":"unhandled operation %s"}`, op.Tool())}
	}
}

func (d *dispatcher) remote(ctx context.Context, op erc3.Operation) dispatchResult {
	raw, err := d.store.Dispatch(ctx, op)
	if err == nil {
		d.metrics.RecordDispatch(op.Tool(), "ok")
		return dispatchResult{content: string(raw)}
	}

	var apiErr *erc3.APIError
	if errors.As(err, &apiErr) {
		d.metrics.RecordDispatch(op.Tool(), "api_error")
		analysis := d.triage.Analyze(ctx, apiErr, "executing "+op.Tool())
		payload, merr := json.Marshal(analysis)
		if merr != nil {
			payload = []byte(`{"error":"` + apiErr.Message + `"}`)
		}
		d.logger.Info("store call failed",
			zap.String("tool", op.Tool()),
			zap.String("outcome", string(analysis.Outcome)),
			zap.Bool("continue", analysis.ShouldContinue),
		)
		if !analysis.ShouldContinue {
			return dispatchResult{
				content: string(payload),
				terminal: &Result{
					Status:  StatusCompleted,
					Outcome: analysis.Outcome,
					Message: analysis.SuggestedMessage,
				},
			}
		}
		return dispatchResult{content: string(payload)}
	}

	// Transport-level fault: surfaced to the model as data.
	d.metrics.RecordDispatch(op.Tool(), "transport_error")
	d.logger.Warn("store call transport fault", zap.String("tool", op.Tool()), zap.Error(err))
	payload, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		payload = []byte(`{"error":"store unreachable"}`)
	}
	return dispatchResult{content: string(payload)}
}
