package sync

import (
	"context"
	"errors"
	"fmt"

	"boardsync/internal/models"
)

// GCResult reports one reference-collection pass.
type GCResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
}

// CollectUnreferenced returns the stored file ids that no live image
// element of the scene references. Pure function: the caller decides when
// deleting them is safe.
func CollectUnreferenced(scene models.Scene, storedFileIDs []string) []string {
	used := scene.UsedFileIDs()

	var unreferenced []string
	for _, id := range storedFileIDs {
		if _, ok := used[id]; !ok {
			unreferenced = append(unreferenced, id)
		}
	}
	return unreferenced
}

// collectGarbage removes attachments the just-persisted scene no longer
// references. Runs only after an explicit save has made the snapshot
// durable; never on load or autosave, so blobs fetched or drawn mid-edit
// are not pruned before the scene that references them is persisted.
//
// Per-id delete failures are aggregated into a warning, never fatal.
func (e *Engine) collectGarbage(ctx context.Context, boardID int64, scene models.Scene) (GCResult, error) {
	stored, err := e.store.ListAttachments(ctx, boardID)
	if err != nil {
		return GCResult{}, fmt.Errorf("list attachments: %w", err)
	}

	result := GCResult{Scanned: len(stored)}
	var errs []error
	for _, fileID := range CollectUnreferenced(scene, stored) {
		if err := e.store.DeleteAttachment(ctx, boardID, fileID); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", fileID, err))
			continue
		}
		result.Deleted++
	}

	if result.Deleted > 0 {
		e.logger.Debug("collected unreferenced attachments",
			"board", boardID, "scanned", result.Scanned, "deleted", result.Deleted)
	}
	return result, errors.Join(errs...)
}

// CollectGarbage runs a reference-collection pass against the last
// persisted snapshot. This is the manual sweep; the engine already runs
// one automatically after every explicit save.
func (e *Engine) CollectGarbage(ctx context.Context, boardID int64) (GCResult, error) {
	snapshot, err := e.store.LoadSnapshot(ctx, boardID)
	if err != nil {
		return GCResult{}, fmt.Errorf("no durable snapshot to collect against: %w", err)
	}
	return e.collectGarbage(ctx, boardID, snapshot.Scene)
}
