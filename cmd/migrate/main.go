package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pricesheet/adapters/postgres"
	"pricesheet/internal/migration"
	"pricesheet/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// savedComparison is the subset of `pricesheet compare --format json` output
// needed to backfill a run
type savedComparison struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Summary struct {
		Records int `json:"records"`
		Changed int `json:"changed"`
	} `json:"summary"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [saved_comparisons_dir]")
	}

	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	dir := os.Args[2]

	files, err := findComparisonFiles(dir)
	if err != nil {
		log.Fatalf("Failed to find comparison files: %v", err)
	}
	log.Printf("Found %d saved comparisons in %s", len(files), dir)

	repo := postgres.NewRunRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		saved, err := loadComparison(file)
		if err != nil {
			log.Printf("Failed to load %s: %v", file, err)
			skipped++
			continue
		}

		run := models.NewComparisonRun(models.RunKindCompare, saved.OldName, saved.NewName)
		// same file, same ID; a second import is rejected by the primary key
		run.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(file))
		run.Total = saved.Summary.Records
		run.Changed = saved.Summary.Changed
		if info, err := os.Stat(file); err == nil {
			run.CreatedAt = info.ModTime().UTC()
		}

		if err := repo.Record(ctx, run); err != nil {
			log.Printf("Skipping %s: %v", filepath.Base(file), err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Backfill complete: %d imported, %d skipped", imported, skipped)
}

func findComparisonFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func loadComparison(path string) (*savedComparison, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var saved savedComparison
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
