package main

import (
	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

func newDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <board-id>",
		Short: "Delete a board remotely and drop its local replica",
		Args:  requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(engine *sync.Engine, _ *store.Store, _ *api.Client) error {
				if err := engine.DeleteBoard(cmd.Context(), boardID); err != nil {
					return err
				}
				return writePlain("deleted board %d\n", boardID)
			})
		},
	}
}
