package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"innbox/internal/config"
	"innbox/internal/database"
	"innbox/internal/embeddings"
	"innbox/internal/openai"
)

func main() {
	cleanup := flag.Bool("cleanup", false, "Delete invalid embedding records before the sweep")
	flag.Parse()

	fmt.Println("=== EMBEDDING SWEEP ===")
	fmt.Printf("Starting at: %s\n", time.Now().Format(time.RFC3339))

	cfg := config.Load()

	fmt.Println("Connecting to database...")
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	ctx := context.Background()

	messageStore := database.NewMessageStore(db)
	embeddingStore := database.NewEmbeddingStore(db)
	if err := embeddingStore.CreateTables(ctx); err != nil {
		log.Fatal("Failed to create/verify embedding table:", err)
	}

	openaiClient, err := openai.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to create OpenAI client:", err)
	}

	var mirror embeddings.Mirror
	if cfg.UseQdrant() {
		qdrantMirror, err := embeddings.NewQdrantMirror(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDimension)
		if err != nil {
			log.Fatal("Failed to connect to qdrant:", err)
		}
		mirror = qdrantMirror
	}

	index := embeddings.NewIndex(messageStore, embeddingStore, openaiClient, mirror,
		cfg.EmbedBatchSize, cfg.EmbedTruncateChars, cfg.EmbeddingDimension)

	if *cleanup {
		deleted, err := index.Cleanup(ctx)
		if err != nil {
			log.Fatal("Cleanup failed:", err)
		}
		fmt.Printf("Cleanup removed %d invalid records\n", deleted)
	}

	start := time.Now()
	stats, err := index.Sync(ctx)
	if err != nil {
		log.Fatal("Sweep failed:", err)
	}

	fmt.Printf("Sweep finished in %v: %d embedded, %d skipped, %d failed\n",
		time.Since(start), stats.Embedded, stats.Skipped, stats.Failed)

	invalid, err := index.Verify(ctx)
	if err != nil {
		log.Fatal("Verify failed:", err)
	}
	if invalid > 0 {
		fmt.Printf("WARNING: %d invalid records remain, rerun with -cleanup\n", invalid)
	}

	fmt.Printf("Completed at: %s\n", time.Now().Format(time.RFC3339))
	os.Exit(0)
}
