package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boardsync/internal/models"
)

const attachmentColumns = "board_id, file_id, blob, mime_type, created_at"

const putAttachmentSQL = `
INSERT INTO attachments (board_id, file_id, blob, mime_type, created_at)
  VALUES (?, ?, ?, ?, ?)
ON CONFLICT(board_id, file_id) DO NOTHING
`

// PutAttachment stores one attachment blob keyed by (board id, file id).
// The first write wins: if the key already exists the call is a no-op,
// never an overwrite. Blob content is immutable per file id.
func (s *Store) PutAttachment(ctx context.Context, record *models.AttachmentRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	mimeType := record.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	_, err := s.db.ExecContext(ctx, putAttachmentSQL,
		record.BoardID, record.FileID, record.Blob, mimeType, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put attachment %d/%s: %w", record.BoardID, record.FileID, err)
	}
	return nil
}

// GetAttachment returns one attachment record including its blob.
func (s *Store) GetAttachment(ctx context.Context, boardID int64, fileID string) (*models.AttachmentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE board_id = ? AND file_id = ?`,
		boardID, fileID,
	)
	record, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment %d/%s: %w", boardID, fileID, err)
	}
	return record, nil
}

// ListAttachments returns the set of file ids stored for one board.
func (s *Store) ListAttachments(ctx context.Context, boardID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_id FROM attachments WHERE board_id = ? ORDER BY file_id",
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments for board %d: %w", boardID, err)
	}
	defer rows.Close()

	fileIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		fileIDs = append(fileIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fileIDs, nil
}

// ListAttachmentRecords returns all attachment records for one board,
// blobs included, ordered by file id.
func (s *Store) ListAttachmentRecords(ctx context.Context, boardID int64) ([]models.AttachmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE board_id = ? ORDER BY file_id`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachment records for board %d: %w", boardID, err)
	}
	defer rows.Close()

	records := []models.AttachmentRecord{}
	for rows.Next() {
		record, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAttachment deletes one attachment record. Deleting a missing
// record is not an error.
func (s *Store) DeleteAttachment(ctx context.Context, boardID int64, fileID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM attachments WHERE board_id = ? AND file_id = ?",
		boardID, fileID,
	)
	if err != nil {
		return fmt.Errorf("delete attachment %d/%s: %w", boardID, fileID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*models.AttachmentRecord, error) {
	var (
		record    models.AttachmentRecord
		mimeType  sql.NullString
		createdAt string
	)
	if err := row.Scan(&record.BoardID, &record.FileID, &record.Blob, &mimeType, &createdAt); err != nil {
		return nil, err
	}
	record.MimeType = mimeType.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = ts
	}
	return &record, nil
}
