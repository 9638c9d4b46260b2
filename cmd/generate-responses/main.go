package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"innbox/internal/config"
	"innbox/internal/database"
	"innbox/internal/embeddings"
	"innbox/internal/notify"
	"innbox/internal/openai"
	"innbox/internal/respond"
	"innbox/internal/retrieval"
)

func main() {
	daysBack := flag.Int("days-back", 7, "How many days back to scan for unanswered threads")
	limit := flag.Int("limit", 3, "Maximum unanswered threads to process")
	k := flag.Int("k", 3, "Similar conversations per draft")
	flag.Parse()

	fmt.Println("=== RESPONSE GENERATION SWEEP ===")
	fmt.Printf("Starting at: %s\n", time.Now().Format(time.RFC3339))

	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	openaiClient, err := openai.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to create OpenAI client:", err)
	}

	messageStore := database.NewMessageStore(db)
	embeddingStore := database.NewEmbeddingStore(db)

	var searcher retrieval.Searcher = retrieval.NewScanSearcher(embeddingStore)
	if cfg.UseQdrant() {
		qdrantMirror, err := embeddings.NewQdrantMirror(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDimension)
		if err != nil {
			log.Fatal("Failed to connect to qdrant:", err)
		}
		searcher = qdrantMirror
	}

	retriever := retrieval.NewRetriever(openaiClient, searcher, messageStore, cfg.RetrieveOverfetch)
	detector := respond.NewDetector(messageStore)
	assembler := respond.NewAssembler(messageStore, cfg.ContextTruncateChars)
	generator := respond.NewChatGenerator(openaiClient, cfg.GenMaxTokens, float32(cfg.GenTemperature))

	var notifier respond.Notifier
	if cfg.SendGridAPIKey != "" && cfg.ReviewEmail != "" {
		notifier = notify.NewDraftMailer(cfg.SendGridAPIKey, cfg.ReviewEmail, cfg.SenderEmail)
		fmt.Printf("Drafts will be mailed to %s for review\n", cfg.ReviewEmail)
	}

	orchestrator := respond.NewOrchestrator(detector, retriever, assembler, generator, notifier)

	since := time.Now().AddDate(0, 0, -*daysBack)
	drafts, err := orchestrator.ProcessUnanswered(context.Background(), since, *limit, *k)
	if err != nil {
		log.Fatal("Sweep failed:", err)
	}

	for _, draft := range drafts {
		fmt.Printf("\n--- Thread %s [%s] ---\n", draft.ThreadID, draft.State)
		fmt.Printf("Guest: %s\n", draft.GuestText)
		if draft.Text != "" {
			fmt.Printf("Draft: %s\n", draft.Text)
		}
		if draft.Error != "" {
			fmt.Printf("Error: %s\n", draft.Error)
		}
	}

	fmt.Printf("\nCompleted at: %s\n", time.Now().Format(time.RFC3339))
}
