package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/models"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

type saveReport struct {
	BoardID   int64  `json:"board_id"`
	Uploaded  int    `json:"uploaded"`
	GCDeleted int    `json:"gc_deleted"`
	Warning   string `json:"warning,omitempty"`
}

func newSaveCmd(cfg *config.Config) *cobra.Command {
	var sceneFile string

	cmd := &cobra.Command{
		Use:   "save <board-id>",
		Short: "Push a board's scene and missing attachments to the remote service",
		Long: `Push a board's scene to the remote service, upload attachments the
remote does not hold yet, persist the snapshot locally, and collect
attachments the scene no longer references.

By default the last locally persisted snapshot is saved; --scene reads
the scene JSON from a file instead.`,
		Args: requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(engine *sync.Engine, st *store.Store, _ *api.Client) error {
				scene, err := sceneToSave(cmd, st, boardID, sceneFile)
				if err != nil {
					return err
				}
				result, err := engine.Save(cmd.Context(), boardID, scene)
				if err != nil {
					return err
				}

				report := saveReport{
					BoardID:   boardID,
					Uploaded:  result.Uploaded,
					GCDeleted: result.GC.Deleted,
				}
				if result.UploadWarning != nil {
					report.Warning = result.UploadWarning.Error()
				}
				return writeOut(report)
			})
		},
	}

	cmd.Flags().StringVar(&sceneFile, "scene", "", "read the scene JSON from a file instead of the local snapshot")
	return cmd
}

func sceneToSave(cmd *cobra.Command, st *store.Store, boardID int64, sceneFile string) (models.Scene, error) {
	if sceneFile != "" {
		raw, err := os.ReadFile(sceneFile)
		if err != nil {
			return models.Scene{}, err
		}
		return models.ParseSceneData(string(raw))
	}

	snapshot, err := st.LoadSnapshot(cmd.Context(), boardID)
	if err != nil {
		return models.Scene{}, fmt.Errorf("no local snapshot for board %d (open it first, or pass --scene): %w", boardID, err)
	}
	return snapshot.Scene, nil
}
