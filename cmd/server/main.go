package main

import (
	"context"
	"time"

	_ "innbox/docs"
	"innbox/internal/config"
	"innbox/internal/database"
	"innbox/internal/emails"
	"innbox/internal/embeddings"
	"innbox/internal/notify"
	"innbox/internal/openai"
	"innbox/internal/respond"
	"innbox/internal/retrieval"
	"innbox/internal/server"
)

func main() {
	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		// No degraded mode without the message store
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	logger.Info().Msg("Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messageStore := database.NewMessageStore(db)
	embeddingStore := database.NewEmbeddingStore(db)
	if err := messageStore.CreateTables(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create messages table")
	}
	if err := embeddingStore.CreateTables(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create embedding_records table")
	}

	openaiClient, err := openai.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("OpenAI client setup failed")
	}

	var mirror embeddings.Mirror
	var searcher retrieval.Searcher = retrieval.NewScanSearcher(embeddingStore)
	if cfg.UseQdrant() {
		qdrantMirror, err := embeddings.NewQdrantMirror(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDimension)
		if err != nil {
			logger.Fatal().Err(err).Msg("Qdrant connection failed")
		}
		mirror = qdrantMirror
		searcher = qdrantMirror
		logger.Info().Str("host", cfg.QdrantHost).Msg("Using qdrant ANN search")
	}

	index := embeddings.NewIndex(messageStore, embeddingStore, openaiClient, mirror,
		cfg.EmbedBatchSize, cfg.EmbedTruncateChars, cfg.EmbeddingDimension)
	retriever := retrieval.NewRetriever(openaiClient, searcher, messageStore, cfg.RetrieveOverfetch)
	detector := respond.NewDetector(messageStore)
	assembler := respond.NewAssembler(messageStore, cfg.ContextTruncateChars)
	generator := respond.NewChatGenerator(openaiClient, cfg.GenMaxTokens, float32(cfg.GenTemperature))

	var notifier respond.Notifier
	if cfg.SendGridAPIKey != "" && cfg.ReviewEmail != "" {
		notifier = notify.NewDraftMailer(cfg.SendGridAPIKey, cfg.ReviewEmail, cfg.SenderEmail)
		logger.Info().Str("review_email", cfg.ReviewEmail).Msg("Draft review notifications enabled")
	}

	orchestrator := respond.NewOrchestrator(detector, retriever, assembler, generator, notifier)

	srv := server.New(cfg, db, logger, &server.Services{
		Messages:     messageStore,
		Index:        index,
		Retriever:    retriever,
		Detector:     detector,
		Orchestrator: orchestrator,
		Classifier:   emails.NewClassifier(cfg.InternalDomain),
	})
	srv.Initialize()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
