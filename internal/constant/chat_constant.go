package constant

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"

	// Opening message for a fresh session
	ChatGreeting = "Hi, I can help you explore evidence-based oncology treatment options. " +
		"To start, what cancer type has the patient been diagnosed with?"

	// Prompt used to synthesize the next clarifying question during intake.
	// The model sees the running transcript and must answer with a single
	// short question ending in a question mark.
	NextQuestionPromptV1 = `You are a clinical intake assistant collecting patient context before an oncology treatment recommendation.

Below is the conversation so far. Ask exactly ONE short follow-up question that gathers missing patient context (cancer type, stage, prior treatments, comorbidities, or treatment goals).

Rules:
- One question only, at most 20 words, ending with a question mark.
- Do not answer, summarize, or recommend anything yet.
- If you believe enough context has been collected, begin the question with "One last thing:".

Conversation:
%s

Next question:`

	// Prompt used by the extractor's generative fallback. The model must
	// answer with the cancer type alone.
	ExtractCancerTypePromptV1 = `Read the conversation below and name the patient's cancer type.

Answer with the cancer type ONLY (e.g. "HER2+ breast cancer"). No punctuation, no explanation. If no cancer type is mentioned, answer exactly: Unknown

Conversation:
%s

Cancer type:`
)

// FallbackQuestions is the deterministic rotation used when question
// synthesis fails or produces something that is not a question. Indexed by
// turnCount modulo len(FallbackQuestions).
var FallbackQuestions = []string{
	"What cancer type has the patient been diagnosed with?",
	"What stage is the disease, and which treatments has the patient already received?",
	"Does the patient have any other significant health conditions?",
	"What matters most to the patient: extending overall survival, or quality of life?",
}
