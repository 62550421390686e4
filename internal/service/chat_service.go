package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"onco-advisor-be/internal/apperrors"
	"onco-advisor-be/internal/constant"
	"onco-advisor-be/internal/dto"
	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/repository/contract"
	"onco-advisor-be/internal/repository/specification"
	"onco-advisor-be/internal/repository/unitofwork"
	"onco-advisor-be/pkg/events"
	"onco-advisor-be/pkg/llm"
	pktNats "onco-advisor-be/pkg/nats"
	"onco-advisor-be/pkg/rag/augment"
	"onco-advisor-be/pkg/rag/dialogue"
	"onco-advisor-be/pkg/rag/extract"
	"onco-advisor-be/pkg/rag/response"
	"onco-advisor-be/pkg/rag/search"
	"onco-advisor-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the advisor conversation interface
type IChatService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	ResetSession(ctx context.Context, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

// chatService coordinates the intake questionnaire and the retrieval flow.
// Turns within one session are serialized by a per-session lock; different
// sessions proceed concurrently.
type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	sessionRepo    contract.SessionStateRepository
	eventPublisher *pktNats.Publisher
	retrievalTopK  int
	llmLogger      *log.Logger

	// Domain components
	extractor          *extract.Extractor
	dialogueController *dialogue.Controller
	searchOrchestrator *search.Orchestrator
	responseGenerator  *response.Generator

	sessionLocks sync.Map // sessionId -> *sync.Mutex
}

// NewChatService creates the chat service with all domain components
func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	sessionRepo contract.SessionStateRepository,
	eventPublisher *pktNats.Publisher,
	searchOrchestrator *search.Orchestrator,
	dialogueCfg dialogue.Config,
	retrievalTopK int,
) IChatService {

	llmLogger := initLLMLogger()
	if retrievalTopK <= 0 {
		retrievalTopK = 3
	}

	return &chatService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
		retrievalTopK:  retrievalTopK,
		llmLogger:      llmLogger,

		extractor:          extract.NewExtractor(llmProvider, llmLogger),
		dialogueController: dialogue.NewController(dialogueCfg, llmProvider, llmLogger),
		searchOrchestrator: searchOrchestrator,
		responseGenerator:  response.NewGenerator(llmProvider, llmLogger),
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) lockSession(sessionId uuid.UUID) func() {
	v, _ := cs.sessionLocks.LoadOrStore(sessionId.String(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession creates a new advisor session and stores the opening greeting
func (cs *chatService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:         uuid.New(),
		Title:      "Unnamed session",
		Attributes: map[string]string{},
		CreatedAt:  now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          constant.ChatGreeting,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	sess := store.NewSession(chatSession.Id.String())
	sess.AppendTurn(store.RoleAssistant, constant.ChatGreeting)
	sess.LastQuestion = constant.ChatGreeting
	cs.sessionRepo.Save(sess)

	return &dto.CreateSessionResponse{
		Id:       chatSession.Id,
		Greeting: constant.ChatGreeting,
	}, nil
}

// GetAllSessions retrieves all advisor sessions, newest first
func (cs *chatService) GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		resp = append(resp, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			Completed: s.Completed,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return resp, nil
}

// GetChatHistory retrieves the stored transcript for a session
func (cs *chatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat records one user turn and answers with either the next clarifying
// question or, once the questionnaire has run its course, the final
// recommendation. The reply string is always user-safe; pipeline failures are
// folded into it rather than returned as errors.
func (cs *chatService) SendChat(ctx context.Context, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	unlock := cs.lockSession(sessionId)
	defer unlock()

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found")
	}

	sess, err := cs.loadSessionState(ctx, uow, chatSession)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess.AppendTurn(store.RoleUser, request.Chat)
	sess.TurnCount++

	cancerType := cs.extractor.Extract(ctx, sess)

	var reply string
	phase := "collecting"

	if cs.dialogueController.ShouldFinalize(sess) {
		phase = "finalizing"
		reply = cs.finalize(ctx, uow, sess, request.Chat, cancerType)
	} else {
		reply = cs.dialogueController.NextQuestion(ctx, sess)
	}
	sess.AppendTurn(store.RoleAssistant, reply)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          request.Chat,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: sessionId,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	modelMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          reply,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: sessionId,
		CreatedAt:     now.Add(1 * time.Second),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &modelMessage); err != nil {
		return nil, err
	}

	if chatSession.Title == "Unnamed session" {
		chatSession.Title = truncateTitle(request.Chat, 60)
	}
	chatSession.TurnCount = sess.TurnCount
	chatSession.Completed = sess.Completed
	chatSession.Attributes = sess.Attributes
	chatSession.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.sessionRepo.Save(sess)

	return &dto.SendChatResponse{
		ChatSessionId: sessionId,
		Phase:         phase,
		CancerType:    cancerType,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Chat:      userMessage.Chat,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        modelMessage.Id,
			Chat:      modelMessage.Chat,
			Role:      modelMessage.Role,
			CreatedAt: modelMessage.CreatedAt,
		},
	}, nil
}

// finalize runs the retrieval flow: augment the query with the extracted
// cancer type, fetch the top study records, then assemble the recommendation.
// Never returns an error; failures become the fixed apology text.
func (cs *chatService) finalize(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	sess *store.Session,
	rawQuery string,
	cancerType string,
) string {

	narrative := cs.dialogueController.Finalize(sess, cancerType)
	enrichedQuery := augment.Augment(rawQuery, cancerType)

	documents, err := cs.searchOrchestrator.Execute(ctx, uow, enrichedQuery, cs.retrievalTopK)
	if err != nil {
		cs.llmLogger.Printf("[ERROR] Retrieval failed for session %s: %v", sess.ID, err)
		return apperrors.Apology(err)
	}

	reply := cs.responseGenerator.Recommend(ctx, enrichedQuery, narrative, documents)

	// Auxiliary audit event, never fails the request
	if cs.eventPublisher != nil {
		evt := events.NewRecommendationGeneratedEvent(sess.ID, cancerType, len(documents))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.llmLogger.Printf("[WARN] Failed to publish RECOMMENDATION_GENERATED event: %v", err)
		}
	}

	return reply
}

// ResetSession restores a session to its start state so a new questionnaire
// cycle can run. The persisted transcript is cleared along with the live
// state, otherwise rehydration would resurrect the old cycle.
func (cs *chatService) ResetSession(ctx context.Context, sessionId uuid.UUID) error {
	unlock := cs.lockSession(sessionId)
	defer unlock()

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if chatSession == nil {
		return fmt.Errorf("session not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	chatSession.TurnCount = 0
	chatSession.Completed = false
	chatSession.Attributes = map[string]string{}
	chatSession.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
		return err
	}

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          constant.ChatGreeting,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: sessionId,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	sess := store.NewSession(sessionId.String())
	sess.AppendTurn(store.RoleAssistant, constant.ChatGreeting)
	sess.LastQuestion = constant.ChatGreeting
	cs.sessionRepo.Save(sess)

	return nil
}

// DeleteSession removes a session and its transcript
func (cs *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	unlock := cs.lockSession(sessionId)
	defer unlock()

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if chatSession == nil {
		return fmt.Errorf("session not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.sessionRepo.Delete(sessionId.String())
	cs.sessionLocks.Delete(sessionId.String())

	return nil
}

// loadSessionState fetches the live state, rehydrating from the database when
// the in-memory copy was lost (process restart, cache eviction).
func (cs *chatService) loadSessionState(ctx context.Context, uow unitofwork.UnitOfWork, chatSession *entity.ChatSession) (*store.Session, error) {
	if sess, found := cs.sessionRepo.Get(chatSession.Id.String()); found {
		return sess, nil
	}

	sess := store.NewSession(chatSession.Id.String())
	sess.TurnCount = chatSession.TurnCount
	sess.Completed = chatSession.Completed
	for k, v := range chatSession.Attributes {
		sess.Attributes[k] = v
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	for _, msg := range chatMessages {
		role := store.RoleAssistant
		if msg.Role == constant.ChatMessageRoleUser {
			role = store.RoleUser
		}
		sess.AppendTurn(role, msg.Chat)
		if role == store.RoleAssistant {
			sess.LastQuestion = msg.Chat
		}
	}

	cs.llmLogger.Printf("[SESSION] Rehydrated state for %s (%d turns)", chatSession.Id, sess.TurnCount)
	return sess, nil
}

func truncateTitle(chat string, max int) string {
	runes := []rune(chat)
	if len(runes) <= max {
		return chat
	}
	return string(runes[:max]) + "..."
}
