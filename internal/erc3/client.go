package erc3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the ERC3 session API: session lifecycle, task tracking,
// scoring, and model-usage telemetry.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient constructs a Client with sane defaults.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://erc3.dev/api"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// StartSessionRequest names a new benchmark session.
type StartSessionRequest struct {
	Benchmark    string `json:"benchmark"`
	Workspace    string `json:"workspace"`
	Name         string `json:"name"`
	Architecture string `json:"architecture"`
}

// StartSession opens a benchmark session and returns its identifier.
func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionStatus returns the session together with its task list.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartTask marks a task as being worked on.
func (c *Client) StartTask(ctx context.Context, task TaskInfo) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(task.TaskID)+"/start", nil, nil)
}

// CompleteTask finishes a task and returns its evaluation, when available.
func (c *Client) CompleteTask(ctx context.Context, task TaskInfo) (*TaskResult, error) {
	var out TaskResult
	if err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(task.TaskID)+"/complete", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitSession submits the session for final scoring.
func (c *Client) SubmitSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/submit", nil, nil)
}

// LogLLM reports one model call. Best-effort: callers log the error and
// move on, a telemetry failure must never fail a task.
func (c *Client) LogLLM(ctx context.Context, report LLMCallReport) error {
	return c.do(ctx, http.MethodPost, "/llm-calls", report, nil)
}

// TaskClient returns a store client scoped to one task.
func (c *Client) TaskClient(task TaskInfo) *TaskClient {
	return &TaskClient{client: c, task: task}
}

// TaskClient executes store operations in the context of a single task.
type TaskClient struct {
	client *Client
	task   TaskInfo
}

// Task returns the task this client is scoped to.
func (t *TaskClient) Task() TaskInfo {
	return t.task
}

// Dispatch posts one tagged operation to the store and returns the raw
// result payload. Platform-reported failures come back as *APIError.
func (t *TaskClient) Dispatch(ctx context.Context, op Operation) (json.RawMessage, error) {
	body, err := EncodeOperation(op)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	path := "/tasks/" + url.PathEscape(t.task.TaskID) + "/dispatch"
	if err := t.client.doRaw(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WhoAmI resolves the acting user of this task.
func (t *TaskClient) WhoAmI(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := t.dispatchInto(ctx, &WhoAmI{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEmployee fetches one employee record.
func (t *TaskClient) GetEmployee(ctx context.Context, id string) (*EmployeeRecord, error) {
	var out EmployeeRecord
	if err := t.dispatchInto(ctx, &GetEmployee{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadWiki loads one wiki document by path.
func (t *TaskClient) LoadWiki(ctx context.Context, file string) (*WikiFile, error) {
	var out WikiFile
	if err := t.dispatchInto(ctx, &LoadWiki{File: file}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchWiki runs a full-text wiki search.
func (t *TaskClient) SearchWiki(ctx context.Context, query string) (*WikiSearchResult, error) {
	var out WikiSearchResult
	if err := t.dispatchInto(ctx, &SearchWiki{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWiki enumerates all wiki file paths.
func (t *TaskClient) ListWiki(ctx context.Context) (*WikiList, error) {
	var out WikiList
	if err := t.dispatchInto(ctx, &ListWiki{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TaskClient) dispatchInto(ctx context.Context, op Operation, out any) error {
	raw, err := t.Dispatch(ctx, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op.Tool(), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body json.RawMessage
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = data
	}
	return c.doRaw(ctx, method, path, body, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body json.RawMessage, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("status %d", res.StatusCode)
			apiErr.Detail = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
