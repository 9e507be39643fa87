// Command packmule inspects a local packmule store.
//
// It opens the store (acquiring the cross-process lock, so it refuses to run
// while a migration session is active), prints per-owner entity counts and
// asset cache statistics, and releases the lock.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossrise/packmule/internal/logger"
	"github.com/mossrise/packmule/pkg/config"
	"github.com/mossrise/packmule/pkg/store"
	"github.com/mossrise/packmule/pkg/store/local"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/packmule/config.yaml)")
	basePath := flag.String("base-path", "", "Store base path (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR; overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *basePath != "" {
		cfg.Store.BasePath = *basePath
		cfg.Store.AssetsPath = ""
		config.ApplyDefaults(cfg)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	if cfg.Store.BasePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no store base path configured (use -base-path or the config file)")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := inspect(ctx, cfg); err != nil {
		if errors.Is(err, store.ErrStoreInUse) {
			fmt.Fprintf(os.Stderr, "Error: store at %s is in use by another process\n", cfg.Store.BasePath)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func inspect(ctx context.Context, cfg *config.Config) error {
	s := config.CreateStore(cfg)
	defer func() { _ = s.Close() }()

	if err := s.Prepare(ctx); err != nil {
		return err
	}

	fmt.Printf("Store: %s\n", cfg.Store.BasePath)

	owners, err := listOwners(cfg.Store.BasePath, cfg.Store.AssetsPath)
	if err != nil {
		return err
	}

	for _, owner := range owners {
		if err := printOwner(ctx, s, owner); err != nil {
			return err
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Assets: %d files, %d bytes\n", stats.Count, stats.TotalBytes)

	return s.Complete(ctx)
}

// listOwners enumerates owner directories directly under the base path,
// skipping the assets root when it lives inside the base.
func listOwners(basePath, assetsPath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var owners []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if assetsPath != "" && entry.Name() == "Assets" {
			continue
		}
		owners = append(owners, entry.Name())
	}
	return owners, nil
}

func printOwner(ctx context.Context, s *local.Store, owner string) error {
	user, err := s.GetUserMetadata(ctx, owner)
	if err != nil {
		return err
	}

	name := owner
	if user != nil {
		name = fmt.Sprintf("%s (%s)", user.Username, owner)
	}

	contacts, err := s.GetContacts(ctx, owner)
	if err != nil {
		return err
	}
	records, err := s.GetRecords(ctx, owner, time.Time{})
	if err != nil {
		return err
	}
	groups, err := s.GetGroups(ctx, owner, time.Time{})
	if err != nil {
		return err
	}

	fmt.Printf("Owner %s: %d contacts, %d records, %d groups\n",
		name, len(contacts), len(records), len(groups))
	return nil
}
