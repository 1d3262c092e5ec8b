package models

import (
	"fmt"
	"time"
)

// Snapshot is the locally persisted copy of one board's scene. Exactly one
// snapshot exists per board id; it is overwritten on every save or load.
type Snapshot struct {
	BoardID   int64
	Scene     Scene
	UpdatedAt time.Time
}

// AttachmentRecord is one locally stored attachment blob, keyed by
// (board id, file id). Blobs are immutable per file id: the first write
// wins and later writes for the same key are no-ops.
type AttachmentRecord struct {
	BoardID   int64
	FileID    string
	Blob      []byte
	MimeType  string
	CreatedAt time.Time
}

// Validate checks the fields required to persist the record.
func (r *AttachmentRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("attachment record is required")
	}
	if r.BoardID <= 0 {
		return fmt.Errorf("attachment board id is required")
	}
	if r.FileID == "" {
		return fmt.Errorf("attachment file id is required")
	}
	return nil
}
