package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const systemPromptHeader = `You are a business assistant helping customers of Aetherion.

When interacting with Aetherion's internal systems, always operate strictly within the user's access level
(Executives have broad access, project leads can write within the projects they lead, team members can read).
For guests (public access, no user account) respond exclusively with public-safe data,
refuse sensitive queries politely, and never reveal internal details or identities.
Successful responses must always include a clear outcome status and explicit entity links.

To confirm project access - get or find the project (and get after finding).
When updating an entry - fill all fields to keep old values from being erased.
When the task is done or cannot be done - respond with the final answer tool.

# Pitfalls:
- "limit" and "offset" DO NOT set negative values, this is an error.
- If a request returns an error, that resource cannot be found, DO NOT retry it again.
- If you finish with a non "ok" outcome, DO NOT provide any links.
- When asked to perform a certain action, DO first check that the action is available and allowed for the user.`

const rulebookPath = "rulebook.md"

// BuildSystemPrompt assembles the static first log entry: policy text, the
// access rulebook, and the resolved identity of the acting user. Loaded
// once per task; treated as opaque configuration afterwards.
func BuildSystemPrompt(ctx context.Context, store Store) (string, error) {
	identity, err := store.WhoAmI(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}

	rulebook, err := store.LoadWiki(ctx, rulebookPath)
	if err != nil {
		return "", fmt.Errorf("load rulebook: %w", err)
	}

	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}

	var b strings.Builder
	b.WriteString(systemPromptHeader)
	fmt.Fprintf(&b, "\n\n<file %q>\n%s\n</file>\n", rulebookPath, rulebook.Content)
	fmt.Fprintf(&b, "\n# Current user info:\n%s\n", identityJSON)

	if identity.CurrentUser == "" {
		b.WriteString("\nUser specified in the task not found! Operating with public access only.\n")
		return b.String(), nil
	}

	record, err := store.GetEmployee(ctx, identity.CurrentUser)
	if err != nil || record.Employee == nil {
		// Identity resolved but the record is unavailable; the model can
		// still delegate to the user-context sub-agent.
		b.WriteString("\nEmployee record for the current user is unavailable.\n")
		return b.String(), nil
	}

	employeeJSON, err := json.Marshal(record.Employee)
	if err != nil {
		return "", fmt.Errorf("marshal employee: %w", err)
	}
	fmt.Fprintf(&b, "%s\n", employeeJSON)

	return b.String(), nil
}
