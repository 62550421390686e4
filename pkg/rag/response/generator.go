package response

import (
	"context"
	"fmt"
	"log"
	"strings"

	"onco-advisor-be/internal/apperrors"
	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/store"
)

// Generator assembles the single retrieval-augmented generation request and
// post-processes its output into a user-safe recommendation string.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Recommend runs one generation call over the retrieved documents and the
// enriched query. No retry. Failures never escape: an error becomes the fixed
// apology (technical detail in the developer suffix), empty output becomes
// the fixed empty-result guidance.
func (g *Generator) Recommend(
	ctx context.Context,
	enrichedQuery string,
	patientContext string,
	documents []store.Document,
) string {

	promptText := g.buildGroundedPrompt(enrichedQuery, patientContext, documents)

	raw, err := g.llmProvider.Chat(ctx, []llm.Message{{Role: "user", Content: promptText}})
	if err != nil {
		g.logger.Printf("[ERROR] Recommendation generation failed: %v", err)
		return apperrors.Apology(apperrors.NewGenerationFailure("recommendation", err))
	}

	if strings.TrimSpace(raw) == "" {
		g.logger.Printf("[WARN] Recommendation generation returned empty output (%d documents)", len(documents))
		return apperrors.EmptyResultMessage
	}

	g.logger.Printf("[GENERATION] Recommendation generated from %d documents", len(documents))
	return raw
}

func (g *Generator) buildGroundedPrompt(query, patientContext string, documents []store.Document) string {
	var prompt strings.Builder

	prompt.WriteString("You are an AI assistant providing evidence-based oncology treatment insights.\n")
	prompt.WriteString("Your responses must be grounded in clinical trial data from FDA-approved drugs and reference outcomes from the FDA.gov website.\n\n")

	prompt.WriteString("<key_considerations>\n")
	prompt.WriteString("1. Overall Survival (OS) is the gold standard. The most meaningful outcome is whether a drug helps patients live longer. ")
	prompt.WriteString("If the OS benefit is marginal (weeks or a few months), say that the impact may be clinically insignificant.\n")
	prompt.WriteString("2. Other outcomes (PFS, ORR, DOR, CR, PR) do NOT prove survival benefit. State explicitly: a drug that improves PFS does not necessarily extend a patient's life. ")
	prompt.WriteString("If a drug was approved solely on PFS or response rate without an OS benefit, highlight this.\n")
	prompt.WriteString("3. Many prescribed drugs are NOT proven in the patient's cancer type. Off-label prescribing is experimental and may lack solid survival data; say whether the evidence in this cancer type is strong or weak.\n")
	prompt.WriteString("4. Be direct, clear, and factual. Avoid false hope or exaggerated benefit. Only relay what the trial data shows.\n")
	prompt.WriteString("</key_considerations>\n\n")

	prompt.WriteString("<response_format>\n")
	prompt.WriteString("- Key-Value section with: Drug Name; Clinical Trial Data (Source: FDA.gov); Overall Survival (OS) Benefit; PFS Improvement Only (No OS Benefit); Off-Label Use in this Cancer Type?\n")
	prompt.WriteString("- Summary section prefixed with \"\U0001F4A1 Summary:\" concisely explaining the recommendation, including caveats about marginal benefit or off-label use.\n")
	prompt.WriteString("- Final caution note: be cautious, many treatments do not improve survival but are still widely used.\n")
	prompt.WriteString("</response_format>\n\n")

	prompt.WriteString("<context>\n")
	if len(documents) == 0 {
		prompt.WriteString("No matching study records were retrieved.\n")
	}
	for i, doc := range documents {
		prompt.WriteString(fmt.Sprintf("--- STUDY RECORD %d ---\n", i+1))
		prompt.WriteString(doc.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</context>\n\n")

	if patientContext != "" {
		prompt.WriteString("<patient_context>\n")
		prompt.WriteString(patientContext)
		prompt.WriteString("</patient_context>\n\n")
	}

	prompt.WriteString("Question: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nAnswer:")

	return prompt.String()
}
