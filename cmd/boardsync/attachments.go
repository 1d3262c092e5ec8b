package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
	"boardsync/internal/store"
	"boardsync/internal/sync"
)

func newAttachCmd(cfg *config.Config) *cobra.Command {
	var mimeType string

	cmd := &cobra.Command{
		Use:   "attach <board-id> <path>",
		Short: "Import a local file as a board attachment",
		Long: `Store a file as an attachment blob in the local replica and append an
image element referencing it to the board's snapshot. The blob is
uploaded to the remote service on the next save.`,
		Args: requireExactlyArgs(2, "board id and file path are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			blob, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if strings.TrimSpace(mimeType) == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(args[1]))
			}

			return withEngine(cfg, func(engine *sync.Engine, st *store.Store, _ *api.Client) error {
				element, err := engine.ImportAttachment(cmd.Context(), boardID, blob, mimeType)
				if err != nil {
					return err
				}

				snapshot, err := st.LoadSnapshot(cmd.Context(), boardID)
				if err != nil {
					return fmt.Errorf("no local snapshot for board %d (open it first): %w", boardID, err)
				}
				scene := snapshot.Scene
				scene.Elements = append(scene.Elements, element)
				if err := st.SaveSnapshot(cmd.Context(), boardID, scene); err != nil {
					return err
				}

				return writePlain("attached %s as file %s\n", args[1], element.FileID)
			})
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime-type", "", "media type of the file (default: inferred from extension)")
	return cmd
}

func newGCCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "gc <board-id>",
		Short: "Remove attachments the last saved scene no longer references",
		Args:  requireExactlyArgs(1, "board id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseBoardID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cfg, func(engine *sync.Engine, _ *store.Store, _ *api.Client) error {
				result, err := engine.CollectGarbage(cmd.Context(), boardID)
				if err != nil {
					return err
				}
				return writeOut(result)
			})
		},
	}
}
