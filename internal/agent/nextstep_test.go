package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
)

func TestDecisionSchemaDeclaresUnion(t *testing.T) {
	raw, err := DecisionSchema()
	require.NoError(t, err)

	s := string(raw)
	require.Contains(t, s, `"oneOf"`)
	require.Contains(t, s, "question_about_current_user")
	require.Contains(t, s, "/respond")
	require.Contains(t, s, "/projects/search")
	require.Contains(t, s, "plan_remaining_steps_brief")
	// wiki and whoami stay client-side, outside the model's choice set
	require.NotContains(t, s, "/wiki/load")
	require.NotContains(t, s, "/whoami")
}

func TestDecodeNextStepSearch(t *testing.T) {
	content := `{
		"current_state": "need the project id",
		"plan_remaining_steps_brief": ["search projects", "answer"],
		"task_completed": false,
		"function": {"tool": "/projects/search", "query": "apollo", "limit": 10, "offset": 0}
	}`

	step, err := DecodeNextStep(content)
	require.NoError(t, err)
	require.False(t, step.TaskCompleted)
	require.Equal(t, "search projects", step.FirstPlannedStep())

	op, ok := step.Function.(*erc3.SearchProjects)
	require.True(t, ok)
	require.Equal(t, "apollo", op.Query)
	require.Equal(t, 10, op.Limit)
}

func TestDecodeNextStepUserQuestion(t *testing.T) {
	content := `{
		"current_state": "who is asking",
		"plan_remaining_steps_brief": ["ask about the user"],
		"task_completed": false,
		"function": {"tool": "question_about_current_user", "question": "what projects do I lead?"}
	}`

	step, err := DecodeNextStep(content)
	require.NoError(t, err)

	q, ok := step.Function.(*CurrentUserQuestion)
	require.True(t, ok)
	require.Equal(t, "what projects do I lead?", q.Question)
}

func TestDecodeNextStepRejectsUnknownTool(t *testing.T) {
	content := `{
		"current_state": "x",
		"plan_remaining_steps_brief": ["y"],
		"task_completed": false,
		"function": {"tool": "/projects/delete", "id": "p-1"}
	}`

	_, err := DecodeNextStep(content)
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside the declared set")
}

func TestDecodeNextStepRejectsClientSideTools(t *testing.T) {
	content := `{
		"current_state": "x",
		"plan_remaining_steps_brief": ["y"],
		"task_completed": false,
		"function": {"tool": "/wiki/load", "file": "rulebook.md"}
	}`

	_, err := DecodeNextStep(content)
	require.Error(t, err)
}

func TestDecodeNextStepRejectsBadPlanLength(t *testing.T) {
	for _, plan := range []string{`[]`, `["a","b","c","d","e","f"]`} {
		content := `{
			"current_state": "x",
			"plan_remaining_steps_brief": ` + plan + `,
			"task_completed": false,
			"function": {"tool": "/projects/list", "limit": 10, "offset": 0}
		}`
		_, err := DecodeNextStep(content)
		require.Error(t, err)
	}
}

func TestDecodeNextStepRejectsUnknownParameters(t *testing.T) {
	content := `{
		"current_state": "x",
		"plan_remaining_steps_brief": ["y"],
		"task_completed": false,
		"function": {"tool": "/projects/get", "id": "p-1", "force": true}
	}`

	_, err := DecodeNextStep(content)
	require.Error(t, err)
}

func TestDecodeNextStepRejectsNonJSON(t *testing.T) {
	_, err := DecodeNextStep("I think we should list the projects first.")
	require.Error(t, err)
}
