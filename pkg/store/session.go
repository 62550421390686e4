package store

// Document represents the flattened text form of a knowledge-base record,
// used as retrieval content for the RAG system
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Turn is one entry of the in-memory conversation transcript
type Turn struct {
	Role string `json:"role"` // RoleUser | RoleAssistant
	Text string `json:"text"`
}

// Session represents the active conversation state in memory.
// One instance exists per chat session; turns within a session are
// serialized by the chat service.
type Session struct {
	ID        string `json:"id"` // ChatSessionID
	TurnCount int    `json:"turn_count"`
	Completed bool   `json:"completed"`

	// Attributes collected during the questionnaire (e.g. AttrCancerType).
	// Each attribute is set at most once unless the session is reset.
	Attributes map[string]string `json:"attributes"`

	// Append-only transcript for the current cycle
	History []Turn `json:"history"`

	// The question the assistant asked last, checked for final-question cues
	LastQuestion string `json:"last_question"`
}

// NewSession returns a session in its start state
func NewSession(id string) *Session {
	return &Session{
		ID:         id,
		Attributes: make(map[string]string),
		History:    []Turn{},
	}
}

// Reset reinitializes all fields to their start values
func (s *Session) Reset() {
	s.TurnCount = 0
	s.Completed = false
	s.Attributes = make(map[string]string)
	s.History = []Turn{}
	s.LastQuestion = ""
}

// AppendTurn records one transcript entry
func (s *Session) AppendTurn(role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// AttrCancerType is the attribute key populated by the entity extractor
	AttrCancerType = "cancerType"

	// AttrUnknown is the sentinel for an attribute that could not be extracted
	AttrUnknown = "Unknown"
)
