package extract

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/store"
)

type fakeLLM struct {
	generateFn func(prompt string) (string, error)
	calls      int
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.calls++
	if f.generateFn == nil {
		return "", errors.New("no fake configured")
	}
	return f.generateFn(prompt)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestMatchCancerType(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "diagnosed with",
			text:  "My father was diagnosed with pancreatic cancer last month.",
			want:  "pancreatic cancer",
			found: true,
		},
		{
			name:  "patient has",
			text:  "The patient has non-small cell lung carcinoma.",
			want:  "non-small cell lung carcinoma",
			found: true,
		},
		{
			name:  "modifier phrase kept whole",
			text:  "She was diagnosed with metastatic HER2+ breast cancer.",
			want:  "metastatic HER2+ breast cancer",
			found: true,
		},
		{
			name:  "suffering from",
			text:  "He is suffering from multiple myeloma.",
			want:  "multiple myeloma",
			found: true,
		},
		{
			name:  "first person",
			text:  "I have melanoma and want to know about options.",
			want:  "melanoma",
			found: true,
		},
		{
			name:  "bare mention",
			text:  "Any data on glioblastoma tumor outcomes?",
			want:  "glioblastoma tumor",
			found: true,
		},
		{
			name:  "british spelling with article stripped",
			text:  "diagnosed with a brain tumour recently",
			want:  "brain tumour",
			found: true,
		},
		{
			name:  "leading stopwords stripped from bare mention",
			text:  "Any data on glioblastoma outcomes? He has a sarcoma.",
			want:  "sarcoma",
			found: true,
		},
		{
			name:  "no cancer mentioned",
			text:  "What treatments improve overall survival?",
			found: false,
		},
		{
			name:  "empty text",
			text:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := MatchCancerType(tt.text)
			if found != tt.found {
				t.Fatalf("found = %v, want %v (got %q)", found, tt.found, got)
			}
			if found && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractCachesResult(t *testing.T) {
	fake := &fakeLLM{}
	e := NewExtractor(fake, discardLogger())

	sess := store.NewSession("s1")
	sess.AppendTurn(store.RoleUser, "My mother has ovarian cancer.")

	got := e.Extract(context.Background(), sess)
	if got != "ovarian cancer" {
		t.Fatalf("Extract = %q, want ovarian cancer", got)
	}
	if sess.Attributes[store.AttrCancerType] != "ovarian cancer" {
		t.Fatalf("attribute not cached: %v", sess.Attributes)
	}

	// Add contradicting text; cached value must win without another LLM call
	sess.AppendTurn(store.RoleUser, "Actually also ask about lung cancer.")
	got = e.Extract(context.Background(), sess)
	if got != "ovarian cancer" {
		t.Errorf("cached Extract = %q, want ovarian cancer", got)
	}
	if fake.calls != 0 {
		t.Errorf("LLM called %d times, want 0", fake.calls)
	}
}

func TestExtractLLMFallback(t *testing.T) {
	fake := &fakeLLM{generateFn: func(string) (string, error) {
		return "chronic lymphocytic leukemia\n", nil
	}}
	e := NewExtractor(fake, discardLogger())

	sess := store.NewSession("s1")
	sess.AppendTurn(store.RoleUser, "My dad's CLL diagnosis came back, what helps?")

	got := e.Extract(context.Background(), sess)
	if got != "chronic lymphocytic leukemia" {
		t.Fatalf("Extract = %q, want chronic lymphocytic leukemia", got)
	}
	if fake.calls != 1 {
		t.Errorf("LLM called %d times, want 1", fake.calls)
	}
}

func TestExtractFallbackFailureResolvesUnknown(t *testing.T) {
	fake := &fakeLLM{generateFn: func(string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	e := NewExtractor(fake, discardLogger())

	sess := store.NewSession("s1")
	sess.AppendTurn(store.RoleUser, "What improves survival outcomes?")

	got := e.Extract(context.Background(), sess)
	if got != store.AttrUnknown {
		t.Errorf("Extract = %q, want %q", got, store.AttrUnknown)
	}
	// Unknown is not cached, a later turn may still resolve it
	if _, ok := sess.Attributes[store.AttrCancerType]; ok {
		t.Errorf("Unknown should not be cached: %v", sess.Attributes)
	}
}

func TestExtractFallbackUnknownAnswer(t *testing.T) {
	fake := &fakeLLM{generateFn: func(string) (string, error) {
		return "Unknown", nil
	}}
	e := NewExtractor(fake, discardLogger())

	sess := store.NewSession("s1")
	sess.AppendTurn(store.RoleUser, "Tell me about survival statistics in general.")

	if got := e.Extract(context.Background(), sess); got != store.AttrUnknown {
		t.Errorf("Extract = %q, want %q", got, store.AttrUnknown)
	}
}
