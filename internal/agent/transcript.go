package agent

import "github.com/unki2aut/martin-sgr-agent-erc3/internal/llm"

// Transcript is the append-only conversation log of one task. It is the
// only state carried between reasoning iterations: entries are never
// edited or removed once appended.
type Transcript struct {
	entries []llm.ChatMessage
}

// NewTranscript seeds the log with the system context and the task text.
func NewTranscript(systemPrompt, taskText string) *Transcript {
	return &Transcript{entries: []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: taskText},
	}}
}

// Append adds one entry to the end of the log.
func (t *Transcript) Append(m llm.ChatMessage) {
	t.entries = append(t.entries, m)
}

// Messages returns a copy of the log for a model call.
func (t *Transcript) Messages() []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}
