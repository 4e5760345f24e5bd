package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"

	"github.com/reflectlab/unmask/internal/cli"
	"github.com/reflectlab/unmask/internal/db"
	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/guidance"
	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/llm"
	"github.com/reflectlab/unmask/internal/repository"
	"github.com/reflectlab/unmask/internal/search"
)

// redisSessionTTL bounds how long abandoned sessions linger in Redis.
const redisSessionTTL = 30 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the identity dataset: embedded by default, a file when
	// UNMASK_DATASET points at one.
	var ds *identity.Dataset
	var err error
	if path := os.Getenv("UNMASK_DATASET"); path != "" {
		ds, err = identity.LoadFile(path)
	} else {
		ds, err = identity.Load()
	}
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	index, err := search.New(ds)
	if err != nil {
		return fmt.Errorf("building search index: %w", err)
	}
	defer index.Close()

	store, cleanup, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer cleanup()

	// Wire the guidance service. The client reports a missing API key at
	// call time, so browsing commands work without one.
	llmCfg := llm.LoadConfig()
	var observer llm.Observer = llm.NoopObserver{}
	if llmCfg.LogCalls {
		observer = llm.NewLogObserver(os.Stderr)
	}
	guide, err := guidance.NewService(llm.NewOpenAIClient(llmCfg, observer), ds)
	if err != nil {
		return fmt.Errorf("wiring guidance service: %w", err)
	}

	app := &cli.App{
		Dataset: ds,
		Index:   index,
		Guide:   guide,
		Store:   store,
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

// openSnapshotStore picks the snapshot backend: Redis when
// UNMASK_REDIS_ADDR is set, otherwise SQLite at UNMASK_DB or the default
// ~/.unmask/unmask.db.
func openSnapshotStore() (exercise.SnapshotStore, func(), error) {
	if addr := os.Getenv("UNMASK_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return repository.NewRedisSnapshotStore(client, redisSessionTTL),
			func() { client.Close() }, nil
	}

	dbPath := os.Getenv("UNMASK_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".unmask", "unmask.db")
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return repository.NewSQLiteSnapshotRepo(database),
		func() { database.Close() }, nil
}
