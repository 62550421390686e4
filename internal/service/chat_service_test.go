package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"onco-advisor-be/internal/constant"
	"onco-advisor-be/internal/dto"
	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/repository/contract"
	"onco-advisor-be/internal/repository/memory"
	"onco-advisor-be/internal/repository/specification"
	"onco-advisor-be/internal/repository/unitofwork"
	"onco-advisor-be/pkg/embedding"
	"onco-advisor-be/pkg/llm"
	"onco-advisor-be/pkg/rag/dialogue"
	"onco-advisor-be/pkg/rag/search"
	"onco-advisor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeLLM struct {
	question       string
	recommendation string
	chatErr        error
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.recommendation, nil
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	if strings.Contains(prompt, "Cancer type:") {
		return store.AttrUnknown, nil
	}
	return f.question, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeChatSessionRepo struct {
	sessions map[uuid.UUID]*entity.ChatSession
}

func (r *fakeChatSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	cp := *s
	r.sessions[s.Id] = &cp
	return nil
}

func (r *fakeChatSessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	cp := *s
	r.sessions[s.Id] = &cp
	return nil
}

func (r *fakeChatSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeChatSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if s, found := r.sessions[byID.ID]; found {
				cp := *s
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeChatSessionRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.sessions)), nil
}

type fakeChatMessageRepo struct {
	messages []*entity.ChatMessage
}

func (r *fakeChatMessageRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeChatMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var sessionID uuid.UUID
	for _, spec := range specs {
		if bySession, ok := spec.(specification.ByChatSessionID); ok {
			sessionID = bySession.ChatSessionID
		}
	}
	var out []*entity.ChatMessage
	for _, m := range r.messages {
		if sessionID == uuid.Nil || m.ChatSessionId == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeChatMessageRepo) DeleteByChatSessionId(_ context.Context, sessionID uuid.UUID) error {
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ChatSessionId != sessionID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

type fakeRecordEmbeddingRepo struct {
	results []*contract.ScoredRecordEmbedding
}

func (r *fakeRecordEmbeddingRepo) Create(_ context.Context, _ *entity.RecordEmbedding) error {
	return nil
}

func (r *fakeRecordEmbeddingRepo) CreateBulk(_ context.Context, _ []*entity.RecordEmbedding) error {
	return nil
}

func (r *fakeRecordEmbeddingRepo) DeleteByRowIndex(_ context.Context, _ int) error { return nil }
func (r *fakeRecordEmbeddingRepo) DeleteAll(_ context.Context) error               { return nil }

func (r *fakeRecordEmbeddingRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.RecordEmbedding, error) {
	return nil, nil
}

func (r *fakeRecordEmbeddingRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.results)), nil
}

func (r *fakeRecordEmbeddingRepo) SearchSimilar(_ context.Context, _ []float32, limit int) ([]*contract.ScoredRecordEmbedding, error) {
	if limit < len(r.results) {
		return r.results[:limit], nil
	}
	return r.results, nil
}

type fakeUow struct {
	sessions   *fakeChatSessionRepo
	messages   *fakeChatMessageRepo
	embeddings *fakeRecordEmbeddingRepo
	commits    int
}

func (u *fakeUow) Begin(_ context.Context) error { return nil }
func (u *fakeUow) Commit() error                 { u.commits++; return nil }
func (u *fakeUow) Rollback() error               { return nil }

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return u.sessions }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return u.messages }
func (u *fakeUow) RecordEmbeddingRepository() contract.RecordEmbeddingRepository {
	return u.embeddings
}

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork { return f.uow }

// --- harness ---

type harness struct {
	svc         IChatService
	uow         *fakeUow
	sessionRepo contract.SessionStateRepository
}

func newHarness(t *testing.T, llmFake *fakeLLM) *harness {
	t.Helper()

	uow := &fakeUow{
		sessions: &fakeChatSessionRepo{sessions: map[uuid.UUID]*entity.ChatSession{}},
		messages: &fakeChatMessageRepo{},
		embeddings: &fakeRecordEmbeddingRepo{
			results: []*contract.ScoredRecordEmbedding{
				{
					Embedding: &entity.RecordEmbedding{
						Id:         uuid.New(),
						Document:   "Drug Name: Pembrolizumab\nCancer Type: Melanoma",
						DrugName:   "Pembrolizumab",
						CancerType: "Melanoma",
					},
					Similarity: 0.91,
				},
			},
		},
	}

	sessionRepo := memory.NewSessionRepository()
	orchestrator := search.NewOrchestrator(&fakeEmbedder{}, log.New(io.Discard, "", 0))

	cfg := dialogue.Config{
		TurnThreshold:     4,
		FinalCues:         []string{"one last thing"},
		FallbackQuestions: constant.FallbackQuestions,
		QuestionPrompt:    constant.NextQuestionPromptV1,
	}

	svc := NewChatService(&fakeFactory{uow: uow}, llmFake, sessionRepo, nil, orchestrator, cfg, 3)

	return &harness{svc: svc, uow: uow, sessionRepo: sessionRepo}
}

// --- tests ---

func TestCreateSession(t *testing.T) {
	h := newHarness(t, &fakeLLM{})

	res, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, constant.ChatGreeting, res.Greeting)

	stored, found := h.sessionRepo.Get(res.Id.String())
	require.True(t, found)
	assert.Equal(t, 0, stored.TurnCount)
	assert.Equal(t, constant.ChatGreeting, stored.LastQuestion)

	history, err := h.svc.GetChatHistory(context.Background(), res.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, constant.ChatMessageRoleModel, history[0].Role)
}

func TestSendChatCollectingPhase(t *testing.T) {
	h := newHarness(t, &fakeLLM{question: "What stage is the disease?"})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	res, err := h.svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{
		Chat: "My father was diagnosed with pancreatic cancer.",
	})
	require.NoError(t, err)

	assert.Equal(t, "collecting", res.Phase)
	assert.Equal(t, "pancreatic cancer", res.CancerType)
	assert.Equal(t, "What stage is the disease?", res.Reply.Chat)
	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)

	stored, found := h.sessionRepo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, 1, stored.TurnCount)
	assert.False(t, stored.Completed)

	// Two new rows on top of the greeting
	history, err := h.svc.GetChatHistory(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestSendChatFinalizesAtThreshold(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		question:       "Anything else?",
		recommendation: "Drug Name: Pembrolizumab\n\U0001F4A1 Summary: proven OS benefit in melanoma.",
	})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	// Seed a session that has already been through three user turns
	sess, found := h.sessionRepo.Get(created.Id.String())
	require.True(t, found)
	sess.TurnCount = 3
	sess.AppendTurn(store.RoleUser, "He has melanoma.")
	h.sessionRepo.Save(sess)

	res, err := h.svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{
		Chat: "Which drug extends overall survival?",
	})
	require.NoError(t, err)

	assert.Equal(t, "finalizing", res.Phase)
	assert.Equal(t, "melanoma", res.CancerType)
	assert.Contains(t, res.Reply.Chat, "Pembrolizumab")

	stored, _ := h.sessionRepo.Get(created.Id.String())
	assert.True(t, stored.Completed)
	assert.Equal(t, 4, stored.TurnCount)

	persisted, err := h.uow.sessions.FindOne(context.Background(), specification.ByID{ID: created.Id})
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.True(t, persisted.Completed)
}

func TestSendChatGenerationErrorBecomesApology(t *testing.T) {
	h := newHarness(t, &fakeLLM{chatErr: errors.New("model down")})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	sess, _ := h.sessionRepo.Get(created.Id.String())
	sess.TurnCount = 3
	sess.AppendTurn(store.RoleUser, "Patient has melanoma.")
	h.sessionRepo.Save(sess)

	res, err := h.svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{
		Chat: "Which drug helps?",
	})
	require.NoError(t, err, "pipeline failures must not surface as transport errors")

	assert.Equal(t, "finalizing", res.Phase)
	assert.Contains(t, res.Reply.Chat, "I'm sorry, something went wrong")
	assert.Contains(t, res.Reply.Chat, "model down")
}

func TestSendChatUnknownSession(t *testing.T) {
	h := newHarness(t, &fakeLLM{})

	_, err := h.svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Chat: "hi"})
	assert.Error(t, err)
}

func TestResetSession(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		question:       "Anything else?",
		recommendation: "rec",
	})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	sess, _ := h.sessionRepo.Get(created.Id.String())
	sess.TurnCount = 4
	sess.Completed = true
	sess.Attributes[store.AttrCancerType] = "melanoma"
	h.sessionRepo.Save(sess)

	require.NoError(t, h.svc.ResetSession(context.Background(), created.Id))

	stored, found := h.sessionRepo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, 0, stored.TurnCount)
	assert.False(t, stored.Completed)
	assert.Empty(t, stored.Attributes)
	assert.Equal(t, constant.ChatGreeting, stored.LastQuestion)

	persisted, err := h.uow.sessions.FindOne(context.Background(), specification.ByID{ID: created.Id})
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, 0, persisted.TurnCount)
	assert.False(t, persisted.Completed)

	// The old transcript is gone, only the fresh greeting remains
	history, err := h.svc.GetChatHistory(context.Background(), created.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, constant.ChatGreeting, history[0].Chat)
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t, &fakeLLM{})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteSession(context.Background(), created.Id))

	if _, found := h.sessionRepo.Get(created.Id.String()); found {
		t.Error("live state must be dropped with the session")
	}

	persisted, err := h.uow.sessions.FindOne(context.Background(), specification.ByID{ID: created.Id})
	require.NoError(t, err)
	assert.Nil(t, persisted)
	assert.Empty(t, h.uow.messages.messages)
}

func TestSessionStateRehydration(t *testing.T) {
	h := newHarness(t, &fakeLLM{question: "What stage is the disease?"})

	created, err := h.svc.CreateSession(context.Background())
	require.NoError(t, err)

	// First turn populates the entity row
	_, err = h.svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{
		Chat: "Diagnosed with melanoma.",
	})
	require.NoError(t, err)

	// Simulate a cache eviction
	h.sessionRepo.Delete(created.Id.String())

	res, err := h.svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{
		Chat: "Stage III, no prior treatment.",
	})
	require.NoError(t, err)
	assert.Equal(t, "melanoma", res.CancerType, "attribute must survive rehydration")

	stored, found := h.sessionRepo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, 2, stored.TurnCount)
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := truncateTitle(long, 60)
	assert.Equal(t, 63, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "short question"
	assert.Equal(t, short, truncateTitle(short, 60))
}
