// Package cli implements the one-shot commands that run outside the HTTP
// server.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sergioat7/reader-collection/internal/backend"
	"github.com/sergioat7/reader-collection/internal/config"
	"github.com/sergioat7/reader-collection/internal/crypto"
	"github.com/sergioat7/reader-collection/internal/database"
	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/preferences"
	booksync "github.com/sergioat7/reader-collection/internal/sync"
)

// SyncCommand runs one reconciliation against the backend and exits.
type SyncCommand struct {
	DatabasePath string
	Timeout      time.Duration
	Verbose      bool
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.DurationVar(&cmd.Timeout, "timeout", 10*time.Minute, "Maximum duration for the sync")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Reconcile the local collection with the backend.\n\n")
		fmt.Fprintf(os.Stderr, "This command:\n")
		fmt.Fprintf(os.Stderr, "  1. Snapshots the local collection and the remote one\n")
		fmt.Fprintf(os.Stderr, "  2. Computes which books to save remotely and which to remove\n")
		fmt.Fprintf(os.Stderr, "  3. Applies the changes in one backend call\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -db /data/reader-collection.db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the sync command
func (cmd *SyncCommand) Run() error {
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

	encryptor, err := newEncryptor(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}

	prefs := preferences.NewStore(db.DB, encryptor)
	repo := books.NewRepository(db.DB)

	auth, err := prefs.AuthData()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if auth.UserID == "" {
		return fmt.Errorf("not logged in, run the server and log in first")
	}

	backendClient := backend.NewClient(cfg.Backend.BaseURL, func(ctx context.Context) (string, error) {
		return auth.Token, nil
	})
	service := booksync.NewService(repo, backendClient)

	fmt.Printf("Syncing collection for user %s\n", auth.UserID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	diff, err := service.Reconcile(ctx, auth.UserID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Sync complete in %v: %d saved, %d removed\n",
		time.Since(start).Round(time.Millisecond), len(diff.ToSave), len(diff.ToRemove))

	if cmd.Verbose {
		for _, book := range diff.ToSave {
			fmt.Printf("  saved: %s (%s)\n", book.Title, book.ID)
		}
		for _, book := range diff.ToRemove {
			fmt.Printf("  removed: %s (%s)\n", book.Title, book.ID)
		}
	}

	return nil
}

func newEncryptor(cfg config.Encryption) (*crypto.Encryptor, error) {
	if cfg.Key != "" {
		return crypto.NewEncryptorFromBase64(cfg.Key)
	}
	if cfg.Passphrase != "" {
		return crypto.NewEncryptorFromPassphrase(cfg.Passphrase, "reader-collection")
	}
	return nil, fmt.Errorf("no encryption key configured, set 'ENCRYPTION_KEY' or 'ENCRYPTION_PASSPHRASE'")
}
