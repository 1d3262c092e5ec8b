package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boardsync/internal/models"
)

// LoadSnapshot returns the locally persisted scene for one board.
// Returns ErrNotFound when the board has no local snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, boardID int64) (*models.Snapshot, error) {
	var (
		elements  string
		appState  string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT elements, app_state, updated_at FROM snapshots WHERE board_id = ?",
		boardID,
	).Scan(&elements, &appState, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", boardID, err)
	}

	var els []models.Element
	if err := json.Unmarshal([]byte(elements), &els); err != nil {
		return nil, fmt.Errorf("snapshot %d has corrupt elements: %w", boardID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d has corrupt timestamp: %w", boardID, err)
	}

	return &models.Snapshot{
		BoardID: boardID,
		Scene: models.Scene{
			Elements: els,
			AppState: models.AppState(appState),
		},
		UpdatedAt: ts,
	}, nil
}

const upsertSnapshotSQL = `
INSERT INTO snapshots (board_id, elements, app_state, updated_at)
  VALUES (?, ?, ?, ?)
ON CONFLICT(board_id) DO UPDATE SET
  elements = excluded.elements,
  app_state = excluded.app_state,
  updated_at = excluded.updated_at
`

// SaveSnapshot upserts the snapshot for one board in a single statement.
// A concurrent LoadSnapshot never observes half-written elements/appState.
func (s *Store) SaveSnapshot(ctx context.Context, boardID int64, scene models.Scene) error {
	elements, appState, err := encodeScene(boardID, scene)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, upsertSnapshotSQL,
		boardID, elements, appState, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot %d: %w", boardID, err)
	}
	return nil
}

// SaveBoardState persists a snapshot together with a set of attachment
// blobs as one transaction: a board adopted from the remote service is
// never observable with the snapshot written but its attachments missing.
// Attachment keys that already exist are left untouched.
func (s *Store) SaveBoardState(ctx context.Context, boardID int64, scene models.Scene, records []models.AttachmentRecord) (err error) {
	elements, appState, err := encodeScene(boardID, scene)
	if err != nil {
		return err
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err = tx.ExecContext(ctx, upsertSnapshotSQL, boardID, elements, appState, now); err != nil {
		return fmt.Errorf("save snapshot %d: %w", boardID, err)
	}
	for _, record := range records {
		mimeType := record.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		if _, err = tx.ExecContext(ctx, putAttachmentSQL,
			record.BoardID, record.FileID, record.Blob, mimeType, now); err != nil {
			return fmt.Errorf("put attachment %d/%s: %w", record.BoardID, record.FileID, err)
		}
	}
	return tx.Commit()
}

func encodeScene(boardID int64, scene models.Scene) (elements, appState string, err error) {
	if boardID <= 0 {
		return "", "", fmt.Errorf("board id is required")
	}

	els := scene.Elements
	if els == nil {
		els = []models.Element{}
	}
	rawElements, err := json.Marshal(els)
	if err != nil {
		return "", "", fmt.Errorf("encode snapshot elements: %w", err)
	}
	normalized, err := scene.AppState.Normalize()
	if err != nil {
		return "", "", fmt.Errorf("encode snapshot app state: %w", err)
	}
	return string(rawElements), string(normalized), nil
}

// DeleteBoard removes the snapshot and cascades deletion of every
// attachment record for the board as one transaction.
func (s *Store) DeleteBoard(ctx context.Context, boardID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM snapshots WHERE board_id = ?", boardID); err != nil {
		return fmt.Errorf("delete snapshot %d: %w", boardID, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM attachments WHERE board_id = ?", boardID); err != nil {
		return fmt.Errorf("delete attachments for board %d: %w", boardID, err)
	}
	return tx.Commit()
}
