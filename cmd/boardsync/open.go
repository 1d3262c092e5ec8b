package main

import (
	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

type openReport struct {
	BoardID     int64  `json:"board_id"`
	Source      string `json:"source"`
	Elements    int    `json:"elements"`
	Attachments int    `json:"attachments"`
	Warning     string `json:"warning,omitempty"`
}

func newOpenCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "open <board-id>",
		Short: "Open a board, preferring the local replica over the remote copy",
		Args:  requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(engine *sync.Engine, st *store.Store, _ *api.Client) error {
				result, err := engine.Open(cmd.Context(), boardID)
				if err != nil {
					return err
				}
				return writeOut(openReportFrom(cmd, st, boardID, result))
			})
		},
	}
}

func newReloadCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <board-id>",
		Short: "Re-fetch a board from the remote service, overwriting local state",
		Args:  requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(engine *sync.Engine, st *store.Store, _ *api.Client) error {
				result, err := engine.ForceReload(cmd.Context(), boardID)
				if err != nil {
					return err
				}
				return writeOut(openReportFrom(cmd, st, boardID, result))
			})
		},
	}
}

func openReportFrom(cmd *cobra.Command, st *store.Store, boardID int64, result sync.OpenResult) openReport {
	report := openReport{BoardID: boardID, Source: "local"}
	if result.FromRemote {
		report.Source = "remote"
	}
	if result.Snapshot != nil {
		report.Elements = len(result.Snapshot.Scene.Elements)
	}
	if fileIDs, err := st.ListAttachments(cmd.Context(), boardID); err == nil {
		report.Attachments = len(fileIDs)
	}
	if result.TransferWarning != nil {
		report.Warning = result.TransferWarning.Error()
	}
	return report
}
