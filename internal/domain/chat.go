package domain

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// ChatMessage is a single transcript entry. It is never mutated after creation.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered, append-only chat history of one page session.
type Transcript struct {
	messages []ChatMessage
}

// NewTranscript returns a transcript seeded with the given messages.
func NewTranscript(seed ...ChatMessage) *Transcript {
	t := &Transcript{messages: make([]ChatMessage, 0, len(seed)+8)}
	t.messages = append(t.messages, seed...)
	return t
}

func (t *Transcript) Append(msg ChatMessage) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the entries in chronological order.
func (t *Transcript) Messages() []ChatMessage {
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
