package response

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"onco-advisor-be/internal/apperrors"
	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/store"
)

type fakeLLM struct {
	chatFn     func(history []llm.Message) (string, error)
	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	if f.chatFn == nil {
		return "", errors.New("no fake configured")
	}
	return f.chatFn(history)
}

func (f *fakeLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return "", errors.New("not implemented")
}

func newTestGenerator(f *fakeLLM) *Generator {
	return NewGenerator(f, log.New(io.Discard, "", 0))
}

func testDocuments() []store.Document {
	return []store.Document{
		{ID: "1", Content: "Drug Name: Pembrolizumab\nCancer Type: Melanoma", Score: 0.91},
		{ID: "2", Content: "Drug Name: Nivolumab\nCancer Type: Melanoma", Score: 0.87},
	}
}

func TestRecommendSuccess(t *testing.T) {
	f := &fakeLLM{chatFn: func([]llm.Message) (string, error) {
		return "Drug Name: Pembrolizumab\n\U0001F4A1 Summary: meaningful OS benefit.", nil
	}}
	g := newTestGenerator(f)

	got := g.Recommend(context.Background(), "Patient has melanoma. What helps?", "intake narrative", testDocuments())
	if !strings.Contains(got, "Pembrolizumab") {
		t.Errorf("Recommend = %q", got)
	}

	// Grounding prompt must carry the records, the narrative and the query
	if !strings.Contains(f.lastPrompt, "STUDY RECORD 1") || !strings.Contains(f.lastPrompt, "STUDY RECORD 2") {
		t.Errorf("prompt missing study records:\n%s", f.lastPrompt)
	}
	if !strings.Contains(f.lastPrompt, "intake narrative") {
		t.Errorf("prompt missing patient context:\n%s", f.lastPrompt)
	}
	if !strings.Contains(f.lastPrompt, "Patient has melanoma. What helps?") {
		t.Errorf("prompt missing query:\n%s", f.lastPrompt)
	}
	if !strings.Contains(f.lastPrompt, "Overall Survival (OS) is the gold standard") {
		t.Errorf("prompt missing OS instruction:\n%s", f.lastPrompt)
	}
}

func TestRecommendErrorBecomesApology(t *testing.T) {
	f := &fakeLLM{chatFn: func([]llm.Message) (string, error) {
		return "", errors.New("connection refused")
	}}
	g := newTestGenerator(f)

	got := g.Recommend(context.Background(), "query", "", testDocuments())
	if !strings.HasPrefix(got, "I'm sorry, something went wrong") {
		t.Errorf("expected apology, got %q", got)
	}
	if !strings.Contains(got, "(for developers:") || !strings.Contains(got, "connection refused") {
		t.Errorf("apology missing developer detail: %q", got)
	}
}

func TestRecommendEmptyOutput(t *testing.T) {
	f := &fakeLLM{chatFn: func([]llm.Message) (string, error) {
		return "   \n", nil
	}}
	g := newTestGenerator(f)

	got := g.Recommend(context.Background(), "query", "", testDocuments())
	if got != apperrors.EmptyResultMessage {
		t.Errorf("expected empty-result message, got %q", got)
	}
}

func TestRecommendNoDocumentsAndEmptyOutput(t *testing.T) {
	f := &fakeLLM{chatFn: func([]llm.Message) (string, error) {
		return "", nil
	}}
	g := newTestGenerator(f)

	got := g.Recommend(context.Background(), "query", "", nil)
	if got != apperrors.EmptyResultMessage {
		t.Errorf("expected empty-result message, got %q", got)
	}
}

func TestRecommendNoDocuments(t *testing.T) {
	f := &fakeLLM{chatFn: func([]llm.Message) (string, error) {
		return "No matching trial data is available.", nil
	}}
	g := newTestGenerator(f)

	got := g.Recommend(context.Background(), "query", "", nil)
	if got != "No matching trial data is available." {
		t.Errorf("Recommend = %q", got)
	}
	if !strings.Contains(f.lastPrompt, "No matching study records were retrieved.") {
		t.Errorf("prompt missing empty-context marker:\n%s", f.lastPrompt)
	}
}
