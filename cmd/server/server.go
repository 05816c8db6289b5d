package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"coursegen/config"
	"coursegen/db"
	"coursegen/handlers"
	"coursegen/models"
	"coursegen/services/chat"
	"coursegen/services/courses"
	"coursegen/services/history"
	"coursegen/services/llmclient"
	"coursegen/services/syllabus"
	"coursegen/services/tokens"
	"coursegen/services/vectorindex"

	"github.com/gorilla/mux"
	"github.com/tmc/langchaingo/llms/ollama"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	if cfg.PineconeAPIKey == "" {
		log.Fatal("PINECONE_API_KEY environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	courseRepo, err := db.NewPostgresCourseRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize course database: %v", err)
	}
	defer courseRepo.Close()

	conversationRepo, err := db.NewPostgresConversationRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize conversation database: %v", err)
	}
	defer conversationRepo.Close()

	exchangeIndex, err := vectorindex.NewPineconeIndex(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
	if err != nil {
		log.Fatalf("Failed to initialize exchange index: %v", err)
	}
	if err := exchangeIndex.EnsureIndex(context.Background()); err != nil {
		log.Fatalf("Failed to ensure exchange index: %v", err)
	}

	// Syllabus generation runs against the local Ollama backend unless an
	// Anthropic key is configured.
	var structuredClient llmclient.StructuredCaller
	if cfg.AnthropicAPIKey != "" {
		structuredClient = llmclient.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.GenerationTimeout)
	} else {
		structuredClient, err = llmclient.NewOllamaClient(cfg.OllamaServerURL, cfg.OllamaModel, cfg.GenerationTimeout, cfg.ProbeTimeout)
		if err != nil {
			log.Fatalf("Failed to initialize structured LLM client: %v", err)
		}
	}

	chatLLM, err := ollama.New(
		ollama.WithModel(cfg.OllamaModel),
		ollama.WithServerURL(cfg.OllamaServerURL),
	)
	if err != nil {
		log.Fatalf("Failed to initialize chat LLM: %v", err)
	}

	courseService := courses.NewService(courseRepo)
	courseHandler := handlers.NewCourseHandler(courseService)

	historyStore := history.NewStore(exchangeIndex)
	promptBuilder := tokens.NewBuilder(cfg.SystemRatio, cfg.HistoryRatio)

	chatService := chat.NewService(chatLLM, historyStore, conversationRepo, promptBuilder, chat.Options{
		MaxPromptTokens:  cfg.MaxPromptTokens,
		HistoryK:         cfg.HistoryK,
		HistoryMaxTokens: cfg.HistoryMaxTokens,
	})
	chatHandler := handlers.NewChatHandler(chatService)

	pipelineOpts := syllabus.Options{
		MinPerLevel:  cfg.MinConceptsPerLevel,
		MaxPerLevel:  cfg.MaxConceptsPerLevel,
		MaxAddRounds: cfg.MaxAddRounds,
	}
	persist := func(ctx context.Context, courseID int, result *models.SyllabusRunResult) error {
		return courseRepo.SaveSyllabus(courseID, result)
	}

	levelFactory := func(emit syllabus.Emitter) syllabus.ModuleStrategy {
		generator := syllabus.NewConceptGenerator(structuredClient, pipelineOpts)
		augmenter := syllabus.NewConceptAugmenter(structuredClient)
		pipeline := syllabus.NewLevelPipeline(generator, augmenter, pipelineOpts, emit)
		return syllabus.NewOrchestrator(pipeline, persist, emit)
	}
	outlineFactory := func(emit syllabus.Emitter) syllabus.ModuleStrategy {
		return syllabus.NewSequentialModuleGenerator(structuredClient, pipelineOpts,
			syllabus.DefaultModuleRetryPolicy(), persist, emit)
	}
	syllabusHandler := handlers.NewSyllabusHandler(courseService, levelFactory, outlineFactory)

	router := mux.NewRouter()

	router.Use(corsMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	courseHandler.RegisterRoutes(router)
	syllabusHandler.RegisterRoutes(router)
	chatHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
