// Package erc3 is a client for the ERC3 enterprise-benchmark platform: the
// session/scoring API plus the per-task store API the agent operates
// against. All business validation and authorization happen on the far
// side; this package only moves typed requests and responses.
package erc3

// TaskInfo identifies one benchmark task.
type TaskInfo struct {
	TaskID   string `json:"task_id"`
	SpecID   string `json:"spec_id"`
	TaskText string `json:"task_text"`
}

// SessionInfo is returned when a session is started or queried.
type SessionInfo struct {
	SessionID string     `json:"session_id"`
	Tasks     []TaskInfo `json:"tasks,omitempty"`
}

// EvalResult is the platform-side evaluation of a completed task.
type EvalResult struct {
	Score float64 `json:"score"`
	Logs  string  `json:"logs"`
}

// TaskResult wraps the optional evaluation of a completed task.
type TaskResult struct {
	Eval *EvalResult `json:"eval,omitempty"`
}

// Outcome tags the terminal status of an agent response.
type Outcome string

const (
	OutcomeOKAnswer            Outcome = "ok_answer"
	OutcomeOKNotFound          Outcome = "ok_not_found"
	OutcomeDeniedSecurity      Outcome = "denied_security"
	OutcomeClarificationNeeded Outcome = "none_clarification_needed"
	OutcomeUnsupported         Outcome = "none_unsupported"
	OutcomeErrorInternal       Outcome = "error_internal"

	// OutcomeParameterAdjusted is emitted only by error triage, when a
	// failed call succeeded after parameter correction.
	OutcomeParameterAdjusted Outcome = "ok_with_parameter_adjustment"
)

// AgentLink references an entity in the final agent response.
type AgentLink struct {
	Kind string `json:"kind" jsonschema:"description=entity kind such as project or employee or time_entry"`
	ID   string `json:"id" jsonschema:"description=entity identifier"`
}

// Identity describes who the store client is acting as.
type Identity struct {
	CurrentUser string `json:"current_user"`
	AccessLevel string `json:"access_level,omitempty"`
}

// Employee is an employee record.
type Employee struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Role     string  `json:"role,omitempty"`
	Salary   float64 `json:"salary,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

// Project is a project record.
type Project struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status,omitempty"`
	Customer string   `json:"customer,omitempty"`
	Lead     string   `json:"lead,omitempty"`
	Team     []string `json:"team,omitempty"`
}

// Customer is a customer record.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimeEntry is a logged unit of work.
type TimeEntry struct {
	ID       string  `json:"id"`
	Employee string  `json:"employee"`
	Project  string  `json:"project"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Note     string  `json:"note,omitempty"`
}

// EmployeeRecord is the response of an employee lookup.
type EmployeeRecord struct {
	Employee *Employee `json:"employee,omitempty"`
}

// WikiFile is a loaded wiki document.
type WikiFile struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

// WikiHit is one wiki search result.
type WikiHit struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet,omitempty"`
}

// WikiSearchResult lists wiki search hits.
type WikiSearchResult struct {
	Results []WikiHit `json:"results"`
}

// WikiList enumerates wiki file paths.
type WikiList struct {
	Paths []string `json:"paths"`
}

// LLMCallReport carries per-call model usage telemetry to the platform.
// Reporting is best-effort; the agent never fails a task over it.
type LLMCallReport struct {
	TaskID           string  `json:"task_id"`
	Model            string  `json:"model"`
	DurationSec      float64 `json:"duration_sec"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
}
