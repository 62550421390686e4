package dialogue

import (
	"context"
	"fmt"
	"log"
	"strings"

	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/store"
)

// State of the progression machine for the current cycle
type State string

const (
	StateCollecting State = "COLLECTING"
	StateFinalizing State = "FINALIZING"
)

// Config drives the progression machine. All knobs are injected so the
// question flow stays a single configurable controller.
type Config struct {
	// TurnThreshold is the user-turn count at which collection stops
	TurnThreshold int

	// FinalCues are phrases that, appearing in the last assistant question,
	// end collection early. Matched case-insensitively as substrings.
	FinalCues []string

	// FallbackQuestions is the deterministic rotation used when synthesis
	// fails or produces a non-question
	FallbackQuestions []string

	// QuestionPrompt is the synthesis instruction; must contain one %s verb
	// for the transcript
	QuestionPrompt string
}

// Controller is the turn-counting state machine that decides, after each user
// message, whether to ask another clarifying question or to finalize and hand
// off to recommendation generation.
type Controller struct {
	cfg         Config
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewController(cfg Config, llmProvider llm.LLMProvider, logger *log.Logger) *Controller {
	if cfg.TurnThreshold <= 0 {
		cfg.TurnThreshold = 4
	}
	return &Controller{
		cfg:         cfg,
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// CurrentState reports where the session stands without mutating it
func (c *Controller) CurrentState(session *store.Session) State {
	if c.ShouldFinalize(session) {
		return StateFinalizing
	}
	return StateCollecting
}

// ShouldFinalize fires when any of: the turn threshold is reached, the last
// assistant question carried a final-question cue, or the session already
// completed (idempotent re-entry).
func (c *Controller) ShouldFinalize(session *store.Session) bool {
	if session.Completed {
		return true
	}
	if session.TurnCount >= c.cfg.TurnThreshold {
		return true
	}
	return c.containsFinalCue(session.LastQuestion)
}

func (c *Controller) containsFinalCue(question string) bool {
	if question == "" {
		return false
	}
	lowered := strings.ToLower(question)
	for _, cue := range c.cfg.FinalCues {
		if cue != "" && strings.Contains(lowered, strings.ToLower(cue)) {
			return true
		}
	}
	return false
}

// NextQuestion synthesizes one short clarifying question for the current
// session. Synthesis errors never escape: the deterministic fallback rotation
// answers instead, indexed by turnCount modulo the rotation length. The chosen
// question is recorded as the session's last question.
func (c *Controller) NextQuestion(ctx context.Context, session *store.Session) string {
	question := c.synthesize(ctx, session)
	if !looksLikeQuestion(question) {
		question = c.fallbackQuestion(session.TurnCount)
	}
	session.LastQuestion = question
	return question
}

func (c *Controller) synthesize(ctx context.Context, session *store.Session) string {
	prompt := fmt.Sprintf(c.cfg.QuestionPrompt, Transcript(session))

	raw, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4), llm.WithMaxTokens(64))
	if err != nil {
		c.logger.Printf("[DIALOGUE] Question synthesis failed, using fallback: %v", err)
		return ""
	}
	return strings.TrimSpace(raw)
}

func (c *Controller) fallbackQuestion(turnCount int) string {
	rotation := c.cfg.FallbackQuestions
	if len(rotation) == 0 {
		return "Could you tell me more about the patient's diagnosis?"
	}
	idx := turnCount % len(rotation)
	if idx < 0 {
		idx = 0
	}
	return rotation[idx]
}

// looksLikeQuestion requires an interrogative marker somewhere in the text.
// Target length is a design goal, not enforced here.
func looksLikeQuestion(text string) bool {
	return strings.Contains(text, "?")
}

// Finalize transitions the session into the terminal state for this cycle and
// builds the patient-context narrative handed to the recommendation assembler.
func (c *Controller) Finalize(session *store.Session, cancerType string) string {
	session.Completed = true
	c.logger.Printf("[DIALOGUE] Finalizing session %s after %d turns (cancer type: %s)",
		session.ID, session.TurnCount, cancerType)
	return BuildNarrative(session, cancerType)
}

// BuildNarrative summarizes the full turn history plus the extracted
// attribute into a single patient-context paragraph
func BuildNarrative(session *store.Session, cancerType string) string {
	var b strings.Builder
	b.WriteString("Patient context collected during intake:\n")
	for _, turn := range session.History {
		if turn.Role == store.RoleUser {
			b.WriteString("- Patient/caregiver said: ")
		} else {
			b.WriteString("- Assistant asked: ")
		}
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	if cancerType != "" && cancerType != store.AttrUnknown {
		b.WriteString(fmt.Sprintf("Extracted cancer type: %s\n", cancerType))
	}
	return b.String()
}

// Transcript renders the session history for prompt injection
func Transcript(session *store.Session) string {
	var b strings.Builder
	for _, turn := range session.History {
		role := "User"
		if turn.Role == store.RoleAssistant {
			role = "Assistant"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", role, turn.Text))
	}
	return b.String()
}
