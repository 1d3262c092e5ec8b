package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

type statusReport struct {
	BoardID     int64  `json:"board_id"`
	HasSnapshot bool   `json:"has_snapshot"`
	Elements    int    `json:"elements"`
	Attachments int    `json:"attachments"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func newStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <board-id>",
		Short: "Show the state of a board's local replica",
		Args:  requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(_ *sync.Engine, st *store.Store, _ *api.Client) error {
				report := statusReport{BoardID: boardID}

				snapshot, err := st.LoadSnapshot(cmd.Context(), boardID)
				switch {
				case err == nil:
					report.HasSnapshot = true
					report.Elements = len(snapshot.Scene.Elements)
					report.UpdatedAt = snapshot.UpdatedAt.Format(time.RFC3339)
				case errors.Is(err, store.ErrNotFound):
					// No local replica yet.
				default:
					return err
				}

				fileIDs, err := st.ListAttachments(cmd.Context(), boardID)
				if err != nil {
					return err
				}
				report.Attachments = len(fileIDs)

				return writeOut(report)
			})
		},
	}
}
