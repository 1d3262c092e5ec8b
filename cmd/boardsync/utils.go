package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

func parseBoardID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid board id %q", arg)
	}
	return id, nil
}

func requireExactlyArgs(n int, message string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// withEngine opens the local store, builds the gateway client and sync
// engine, and tears the store down after fn returns.
func withEngine(cfg *config.Config, fn func(engine *sync.Engine, st *store.Store, client *api.Client) error) error {
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer st.Close()

	client := api.NewClient(cfg.APIURL)
	engine := sync.New(st, client, sync.Options{
		Concurrency:   cfg.Sync.TransferConcurrency,
		AutosaveDelay: cfg.AutosaveDebounce(),
		Logger:        slog.Default(),
	})
	return fn(engine, st, client)
}

func withClient(cfg *config.Config, fn func(client *api.Client) error) error {
	return fn(api.NewClient(cfg.APIURL))
}
