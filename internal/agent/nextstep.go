package agent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/schema"
)

// NextStep is the structured decision the model produces once per
// reasoning iteration. PlanRemainingStepsBrief is advisory text only:
// the loop acts on Function and nothing else, by contract.
type NextStep struct {
	CurrentState            string
	PlanRemainingStepsBrief []string
	TaskCompleted           bool
	Function                erc3.Operation
}

// FirstPlannedStep returns the leading plan item for logging.
func (s *NextStep) FirstPlannedStep() string {
	if len(s.PlanRemainingStepsBrief) == 0 {
		return ""
	}
	return s.PlanRemainingStepsBrief[0]
}

// CurrentUserQuestion delegates a narrow question about the acting user to
// the user-context sub-agent instead of the store.
type CurrentUserQuestion struct {
	Question string `json:"question" jsonschema:"description=any question about the current user"`
}

func (CurrentUserQuestion) Tool() string { return "question_about_current_user" }

// unionPrototypes enumerates every operation the model may choose, in the
// order the decision schema presents them. The terminal response comes
// right after the sub-agent delegate, as the original cascade reads.
func unionPrototypes() []erc3.Operation {
	return []erc3.Operation{
		&CurrentUserQuestion{},
		&erc3.ProvideAgentResponse{},
		&erc3.ListProjects{},
		&erc3.ListEmployees{},
		&erc3.ListCustomers{},
		&erc3.GetCustomer{},
		&erc3.GetEmployee{},
		&erc3.GetProject{},
		&erc3.GetTimeEntry{},
		&erc3.SearchProjects{},
		&erc3.SearchEmployees{},
		&erc3.LogTimeEntry{},
		&erc3.SearchTimeEntries{},
		&erc3.SearchCustomers{},
		&erc3.UpdateTimeEntry{},
		&erc3.UpdateProjectTeam{},
		&erc3.UpdateProjectStatus{},
		&erc3.UpdateEmployeeInfo{},
		&erc3.TimeSummaryByProject{},
		&erc3.TimeSummaryByEmployee{},
	}
}

// operationFor resolves a wire tag to a fresh operation limited to the
// decision union (wiki and whoami calls are client-side only).
func operationFor(tool string) (erc3.Operation, bool) {
	if tool == (CurrentUserQuestion{}).Tool() {
		return &CurrentUserQuestion{}, true
	}
	for _, proto := range unionPrototypes() {
		if proto.Tool() == tool {
			op, ok := erc3.OperationFor(tool)
			return op, ok
		}
	}
	return nil, false
}

// nextStepDoc shapes the decision schema; the function property is
// replaced with the operation union after reflection.
type nextStepDoc struct {
	CurrentState            string   `json:"current_state" jsonschema:"description=your summary of what is known so far"`
	PlanRemainingStepsBrief []string `json:"plan_remaining_steps_brief" jsonschema:"minItems=1,maxItems=5,description=remaining steps to accomplish the task; only the first one is executed"`
	TaskCompleted           bool     `json:"task_completed" jsonschema:"description=true when the task is done and the function is the final response"`
	Function                struct{} `json:"function"`
}

// DecisionSchema builds the JSON Schema the model output is constrained
// to: the NextStep envelope with a oneOf union over the operation set.
func DecisionSchema() (json.RawMessage, error) {
	root := schema.Reflect(&nextStepDoc{})

	variants := make([]*jsonschema.Schema, 0, len(unionPrototypes())+1)
	for _, proto := range unionPrototypes() {
		variants = append(variants, schema.Variant(proto, proto.Tool()))
	}
	fn := schema.Union(variants...)
	fn.Description = "execute the first remaining step"
	schema.SetProperty(root, "function", fn)

	return schema.Marshal(root)
}

// DecodeNextStep parses a constrained model response into a decision.
// Any mismatch with the declared shape is a decode fault the loop may
// retry once.
func DecodeNextStep(content string) (*NextStep, error) {
	var env struct {
		CurrentState            string          `json:"current_state"`
		PlanRemainingStepsBrief []string        `json:"plan_remaining_steps_brief"`
		TaskCompleted           bool            `json:"task_completed"`
		Function                json.RawMessage `json:"function"`
	}
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("decision is not valid JSON: %w", err)
	}
	if n := len(env.PlanRemainingStepsBrief); n < 1 || n > 5 {
		return nil, fmt.Errorf("plan_remaining_steps_brief must hold 1-5 items, got %d", n)
	}
	if len(env.Function) == 0 {
		return nil, fmt.Errorf("decision is missing the function field")
	}

	var tag struct {
		Tool string `json:"tool"`
	}
	if err := json.Unmarshal(env.Function, &tag); err != nil {
		return nil, fmt.Errorf("function is not an object: %w", err)
	}

	op, ok := operationFor(tag.Tool)
	if !ok {
		return nil, fmt.Errorf("function tool %q is outside the declared set", tag.Tool)
	}

	dec := json.NewDecoder(bytes.NewReader(withoutTag(env.Function)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(op); err != nil {
		return nil, fmt.Errorf("function %s has malformed parameters: %w", tag.Tool, err)
	}

	return &NextStep{
		CurrentState:            env.CurrentState,
		PlanRemainingStepsBrief: env.PlanRemainingStepsBrief,
		TaskCompleted:           env.TaskCompleted,
		Function:                op,
	}, nil
}

// withoutTag strips the discriminator so strict decoding of the parameter
// struct does not trip over it.
func withoutTag(raw json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	delete(fields, "tool")
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}
