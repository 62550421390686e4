package extract

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"onco-advisor-be/internal/constant"
	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/store"
)

// suffixAlternation covers the domain suffix words a cancer-type noun phrase
// ends with
const suffixAlternation = `(?:cancer|carcinoma|sarcoma|lymphoma|leukemia|melanoma|tumou?r|neoplasm|myeloma)`

// nounPhrase is a bounded, lazy run of words before the suffix, so
// "metastatic HER2+ breast cancer" is captured whole
const nounPhrase = `((?:[A-Za-z0-9+'/\-]+ ){0,5}?` + suffixAlternation + `s?)\b`

// cueRules is the ordered list of pattern rules. The first rule that matches
// wins, so more specific cue phrases come first.
var cueRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)diagnos(?:ed|is)(?: with| of)?:?\s+` + nounPhrase),
	regexp.MustCompile(`(?i)patient has\s+` + nounPhrase),
	regexp.MustCompile(`(?i)suffering from\s+` + nounPhrase),
	regexp.MustCompile(`(?i)treated for\s+` + nounPhrase),
	regexp.MustCompile(`(?i)\bI have\s+` + nounPhrase),
	regexp.MustCompile(`(?i)\bhas\s+` + nounPhrase),
	regexp.MustCompile(`(?i)\b` + nounPhrase),
}

// Extractor derives the cancer type from free-form conversation text using
// deterministic pattern matching, with the generation model as a fallback.
type Extractor struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewExtractor(llmProvider llm.LLMProvider, logger *log.Logger) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Extract returns the cancer type mentioned so far in the session, or
// store.AttrUnknown. Once a non-Unknown value has been cached on the session
// the cached value is returned without recomputation.
func (e *Extractor) Extract(ctx context.Context, session *store.Session) string {
	if cached, ok := session.Attributes[store.AttrCancerType]; ok && cached != store.AttrUnknown {
		return cached
	}

	text := userTranscript(session)
	if value, ok := MatchCancerType(text); ok {
		session.Attributes[store.AttrCancerType] = value
		e.logger.Printf("[EXTRACT] Pattern match: %q", value)
		return value
	}

	value, err := e.fallback(ctx, text)
	if err != nil {
		// ExtractionFailure is recovered here, never surfaced to the user
		e.logger.Printf("[EXTRACT] Fallback failed, resolving to Unknown: %v", err)
		return store.AttrUnknown
	}
	if value != store.AttrUnknown {
		session.Attributes[store.AttrCancerType] = value
		e.logger.Printf("[EXTRACT] LLM fallback: %q", value)
	}
	return value
}

// leadingStopwords are function words the lazy prefix can drag into the
// capture ("any data on glioblastoma"); they are stripped from the front of
// the match, never from inside it.
var leadingStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "my": {}, "his": {}, "her": {}, "their": {},
	"this": {}, "that": {}, "some": {}, "any": {}, "of": {}, "on": {}, "in": {},
	"for": {}, "with": {}, "about": {}, "and": {}, "or": {}, "data": {},
}

// MatchCancerType applies the ordered cue rules to the given text and returns
// the first captured noun phrase, trimmed of surrounding whitespace,
// punctuation and leading function words.
func MatchCancerType(text string) (string, bool) {
	for _, rule := range cueRules {
		if m := rule.FindStringSubmatch(text); m != nil {
			value := trimPhrase(m[1])
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}

func trimPhrase(raw string) string {
	words := strings.Fields(strings.Trim(raw, " \t\n.,;:!?\"'"))
	for len(words) > 1 {
		if _, ok := leadingStopwords[strings.ToLower(words[0])]; !ok {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func (e *Extractor) fallback(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return store.AttrUnknown, nil
	}

	prompt := fmt.Sprintf(constant.ExtractCancerTypePromptV1, text)
	raw, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(32))
	if err != nil {
		return "", err
	}

	value := strings.Trim(strings.TrimSpace(raw), ".\"'")
	if value == "" || strings.EqualFold(value, store.AttrUnknown) {
		return store.AttrUnknown, nil
	}
	return value, nil
}

func userTranscript(session *store.Session) string {
	var b strings.Builder
	for _, turn := range session.History {
		if turn.Role == store.RoleUser {
			b.WriteString(turn.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
