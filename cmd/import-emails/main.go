package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"innbox/internal/config"
	"innbox/internal/database"
	"innbox/internal/emails"
	"innbox/internal/models"
)

func main() {
	path := flag.String("path", "", "Path to a message payload JSON file or a directory of them")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage:")
		fmt.Println("  Import one file:   import-emails -path /path/to/messages.json")
		fmt.Println("  Import directory:  import-emails -path /path/to/exports/")
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	store := database.NewMessageStore(db)
	if err := store.CreateTables(ctx); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	ingestor := emails.NewIngestor(store, emails.NewClassifier(cfg.InternalDomain))

	files, err := collectFiles(*path)
	if err != nil {
		log.Fatalf("Failed to list input files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No JSON files found under %s", *path)
	}

	var total emails.IngestStats
	for _, file := range files {
		fmt.Printf("[IMPORT] Reading %s...\n", file)

		raw, err := readMessages(file)
		if err != nil {
			fmt.Printf("[IMPORT] Warning: Skipping %s: %v\n", file, err)
			continue
		}

		stats, err := ingestor.Ingest(ctx, raw)
		if err != nil {
			log.Fatalf("Ingestion failed for %s: %v", file, err)
		}

		total.Stored += stats.Stored
		total.Skipped += stats.Skipped
		total.Discarded += stats.Discarded
		total.Failed += stats.Failed
	}

	fmt.Printf("[IMPORT] Done: %d stored, %d skipped, %d discarded, %d failed\n",
		total.Stored, total.Skipped, total.Discarded, total.Failed)
}

// collectFiles expands a path into the JSON files it refers to
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	return files, nil
}

// readMessages decodes one export file, either a JSON array of raw
// messages or a single message object
func readMessages(file string) ([]models.RawMessage, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var batch []models.RawMessage
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}

	var single models.RawMessage
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("not a message array or object: %w", err)
	}
	return []models.RawMessage{single}, nil
}
