package erc3

import (
	"encoding/json"
	"fmt"
)

// Operation is one request from the closed store catalog. Implementations
// are plain parameter structs; Tool returns the wire tag the store
// dispatches on. The set is closed: decoding an unknown tag fails, and the
// agent dispatcher switches over these types exhaustively.
type Operation interface {
	Tool() string
}

// ProvideAgentResponse is the terminal operation: it carries the final
// answer and performs no remote call.
type ProvideAgentResponse struct {
	Message string      `json:"message" jsonschema:"description=final user-facing answer"`
	Outcome Outcome     `json:"outcome" jsonschema:"enum=ok_answer,enum=ok_not_found,enum=denied_security,enum=none_clarification_needed,enum=none_unsupported,enum=error_internal"`
	Links   []AgentLink `json:"links" jsonschema:"description=explicit entity links; empty unless outcome is ok"`
}

func (ProvideAgentResponse) Tool() string { return "/respond" }

type ListProjects struct {
	Limit  int `json:"limit" jsonschema:"description=page size; never negative"`
	Offset int `json:"offset" jsonschema:"description=page offset; never negative"`
}

func (ListProjects) Tool() string { return "/projects/list" }

type ListEmployees struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (ListEmployees) Tool() string { return "/employees/list" }

type ListCustomers struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (ListCustomers) Tool() string { return "/customers/list" }

type GetProject struct {
	ID string `json:"id"`
}

func (GetProject) Tool() string { return "/projects/get" }

type GetEmployee struct {
	ID string `json:"id"`
}

func (GetEmployee) Tool() string { return "/employees/get" }

type GetCustomer struct {
	ID string `json:"id"`
}

func (GetCustomer) Tool() string { return "/customers/get" }

type GetTimeEntry struct {
	ID string `json:"id"`
}

func (GetTimeEntry) Tool() string { return "/time/get" }

type SearchProjects struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (SearchProjects) Tool() string { return "/projects/search" }

type SearchEmployees struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (SearchEmployees) Tool() string { return "/employees/search" }

type SearchCustomers struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (SearchCustomers) Tool() string { return "/customers/search" }

type SearchTimeEntries struct {
	Employee string `json:"employee" jsonschema:"description=employee id filter; empty for any"`
	Project  string `json:"project" jsonschema:"description=project id filter; empty for any"`
	DateFrom string `json:"date_from" jsonschema:"description=inclusive ISO date filter; empty for open range"`
	DateTo   string `json:"date_to" jsonschema:"description=inclusive ISO date filter; empty for open range"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

func (SearchTimeEntries) Tool() string { return "/time/search" }

type LogTimeEntry struct {
	Employee string  `json:"employee"`
	Project  string  `json:"project"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Note     string  `json:"note"`
}

func (LogTimeEntry) Tool() string { return "/time/log" }

// UpdateTimeEntry replaces a time entry. Every field must be filled;
// the store overwrites the whole record, not a patch.
type UpdateTimeEntry struct {
	ID       string  `json:"id"`
	Employee string  `json:"employee"`
	Project  string  `json:"project"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Note     string  `json:"note"`
}

func (UpdateTimeEntry) Tool() string { return "/time/update" }

type UpdateProjectTeam struct {
	ID   string   `json:"id"`
	Lead string   `json:"lead"`
	Team []string `json:"team"`
}

func (UpdateProjectTeam) Tool() string { return "/projects/update-team" }

type UpdateProjectStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (UpdateProjectStatus) Tool() string { return "/projects/update-status" }

type UpdateEmployeeInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (UpdateEmployeeInfo) Tool() string { return "/employees/update" }

type TimeSummaryByProject struct {
	Project  string `json:"project"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

func (TimeSummaryByProject) Tool() string { return "/time/summary-by-project" }

type TimeSummaryByEmployee struct {
	Employee string `json:"employee"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

func (TimeSummaryByEmployee) Tool() string { return "/time/summary-by-employee" }

// WhoAmI resolves the identity and access level of the acting user.
type WhoAmI struct{}

func (WhoAmI) Tool() string { return "/whoami" }

type ListWiki struct{}

func (ListWiki) Tool() string { return "/wiki/list" }

type LoadWiki struct {
	File string `json:"file"`
}

func (LoadWiki) Tool() string { return "/wiki/load" }

type SearchWiki struct {
	Query string `json:"query"`
}

func (SearchWiki) Tool() string { return "/wiki/search" }

// OperationFor returns a fresh operation value for a wire tag. The second
// result is false for tags outside the catalog.
func OperationFor(tool string) (Operation, bool) {
	switch tool {
	case "/respond":
		return &ProvideAgentResponse{}, true
	case "/projects/list":
		return &ListProjects{}, true
	case "/employees/list":
		return &ListEmployees{}, true
	case "/customers/list":
		return &ListCustomers{}, true
	case "/projects/get":
		return &GetProject{}, true
	case "/employees/get":
		return &GetEmployee{}, true
	case "/customers/get":
		return &GetCustomer{}, true
	case "/time/get":
		return &GetTimeEntry{}, true
	case "/projects/search":
		return &SearchProjects{}, true
	case "/employees/search":
		return &SearchEmployees{}, true
	case "/customers/search":
		return &SearchCustomers{}, true
	case "/time/search":
		return &SearchTimeEntries{}, true
	case "/time/log":
		return &LogTimeEntry{}, true
	case "/time/update":
		return &UpdateTimeEntry{}, true
	case "/projects/update-team":
		return &UpdateProjectTeam{}, true
	case "/projects/update-status":
		return &UpdateProjectStatus{}, true
	case "/employees/update":
		return &UpdateEmployeeInfo{}, true
	case "/time/summary-by-project":
		return &TimeSummaryByProject{}, true
	case "/time/summary-by-employee":
		return &TimeSummaryByEmployee{}, true
	case "/whoami":
		return &WhoAmI{}, true
	case "/wiki/list":
		return &ListWiki{}, true
	case "/wiki/load":
		return &LoadWiki{}, true
	case "/wiki/search":
		return &SearchWiki{}, true
	default:
		return nil, false
	}
}

// EncodeOperation marshals op with its wire tag injected, matching the
// shape the store dispatch endpoint and the decision schema use.
func EncodeOperation(op Operation) (json.RawMessage, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", op.Tool(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("re-read %s: %w", op.Tool(), err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	tag, err := json.Marshal(op.Tool())
	if err != nil {
		return nil, err
	}
	fields["tool"] = tag

	return json.Marshal(fields)
}
