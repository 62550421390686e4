package bootstrap

import (
	"context"
	"log"

	"onco-advisor-be/internal/config"
	"onco-advisor-be/internal/controller"
	"onco-advisor-be/internal/pkg/logger"
	"onco-advisor-be/internal/repository/contract"
	"onco-advisor-be/internal/repository/memory"
	"onco-advisor-be/internal/repository/redisstore"
	"onco-advisor-be/internal/repository/unitofwork"
	"onco-advisor-be/internal/service"
	"onco-advisor-be/pkg/dataset"
	"onco-advisor-be/pkg/embedding"
	"onco-advisor-be/pkg/llm/factory"
	"onco-advisor-be/pkg/rag/dialogue"
	"onco-advisor-be/pkg/rag/search"

	"onco-advisor-be/internal/constant"

	pktNats "onco-advisor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	DatasetController controller.IDatasetController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for the CLI entrypoint
	ChatService    service.IChatService
	DatasetService service.IDatasetService

	// Infrastructure handles main.go may want to close
	EventPublisher *pktNats.Publisher
	SysLogger      logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Session State Storage
	var sessionRepo contract.SessionStateRepository
	if cfg.App.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisstore.NewSessionRepository(rdb)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionRepo = memory.NewSessionRepository()
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// 5. NATS (auxiliary audit events, soft dependency)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// 6. Services
	ragLogger := log.Default()
	searchOrchestrator := search.NewOrchestrator(embeddingProvider, ragLogger)

	publisherService := service.NewPublisherService(pubSub, cfg.Dataset.IndexTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Dataset.IndexTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	loader := dataset.NewLoader(cfg.Dataset.CSVPath)
	datasetService := service.NewDatasetService(loader, publisherService, natsPub, cfg.Dataset.CSVPath, sysLogger)

	dialogueCfg := dialogue.Config{
		TurnThreshold:     cfg.Chat.TurnThreshold,
		FinalCues:         cfg.Chat.FinalCues,
		FallbackQuestions: constant.FallbackQuestions,
		QuestionPrompt:    constant.NextQuestionPromptV1,
	}

	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		sessionRepo,
		natsPub,
		searchOrchestrator,
		dialogueCfg,
		cfg.Chat.RetrievalTopK,
	)

	// 7. Controllers
	return &Container{
		ChatController:    controller.NewChatController(chatService),
		DatasetController: controller.NewDatasetController(datasetService),
		ConsumerService:   consumerService,
		ChatService:       chatService,
		DatasetService:    datasetService,
		EventPublisher:    natsPub,
		SysLogger:         sysLogger,
	}
}
