package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sergioat7/reader-collection/internal/config"
	"github.com/sergioat7/reader-collection/internal/database"
	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/googlebooks"
	"github.com/sergioat7/reader-collection/internal/tasks"
)

// EnrichCommand sweeps the collection and fills in missing volume details.
type EnrichCommand struct {
	DatabasePath string
	Timeout      time.Duration
}

// NewEnrichCommand creates a new EnrichCommand
func NewEnrichCommand() *EnrichCommand {
	return &EnrichCommand{}
}

// ParseFlags parses command line flags
func (cmd *EnrichCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.DurationVar(&cmd.Timeout, "timeout", 60*time.Minute, "Maximum duration for the sweep")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s enrich [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch full volume details for every book missing a description.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the enrich command
func (cmd *EnrichCommand) Run() error {
	cfg := config.NewConfig()

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	searchClient := googlebooks.NewClientWithBaseURL(cfg.GoogleBooks.BaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	fmt.Println("Sweeping collection for missing details...")

	processor := tasks.EnrichCollectionProcessor(searchClient, repo)
	if err := processor(ctx, tasks.EnrichCollectionTask{}); err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Println("Sweep complete")
	return nil
}
