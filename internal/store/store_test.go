package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"boardsync/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testScene(t *testing.T, data string) models.Scene {
	t.Helper()
	scene, err := models.ParseSceneData(data)
	if err != nil {
		t.Fatalf("parse scene: %v", err)
	}
	return scene
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	scene := testScene(t, `{
	  "elements": [
	    {"type": "rectangle", "id": "r1", "x": 1},
	    {"type": "image", "id": "i1", "fileId": "f1", "isDeleted": false}
	  ],
	  "appState": {"viewBackgroundColor": "#fff"}
	}`)

	if err := st.SaveSnapshot(ctx, 1, scene); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.LoadSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BoardID != 1 {
		t.Fatalf("expected board 1, got %d", got.BoardID)
	}
	if len(got.Scene.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got.Scene.Elements))
	}
	if got.Scene.Elements[1].FileID != "f1" {
		t.Fatalf("image element lost: %+v", got.Scene.Elements[1])
	}

	want, err := scene.EncodeData()
	if err != nil {
		t.Fatalf("encode want: %v", err)
	}
	gotData, err := got.Scene.EncodeData()
	if err != nil {
		t.Fatalf("encode got: %v", err)
	}
	if gotData != want {
		t.Fatalf("scene not structurally equal:\nwant %s\ngot  %s", want, gotData)
	}
}

func TestLoadSnapshotNotFound(t *testing.T) {
	st := testStore(t)

	_, err := st.LoadSnapshot(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSnapshotOverwrites(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.SaveSnapshot(ctx, 1, testScene(t, `{"elements":[{"type":"rectangle","id":"r1"}],"appState":{}}`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := st.SaveSnapshot(ctx, 1, testScene(t, `{"elements":[],"appState":{}}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := st.LoadSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Scene.Elements) != 0 {
		t.Fatalf("expected overwritten snapshot, got %d elements", len(got.Scene.Elements))
	}
}

func TestPutAttachmentFirstWriteWins(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := &models.AttachmentRecord{BoardID: 1, FileID: "f1", Blob: []byte("original"), MimeType: "image/png"}
	if err := st.PutAttachment(ctx, first); err != nil {
		t.Fatalf("first put: %v", err)
	}

	// Same key again: must be a no-op, never an overwrite.
	second := &models.AttachmentRecord{BoardID: 1, FileID: "f1", Blob: []byte("changed"), MimeType: "image/jpeg"}
	if err := st.PutAttachment(ctx, second); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := st.GetAttachment(ctx, 1, "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Blob) != "original" {
		t.Fatalf("blob was overwritten: %q", got.Blob)
	}
	if got.MimeType != "image/png" {
		t.Fatalf("mime type was overwritten: %q", got.MimeType)
	}

	fileIDs, err := st.ListAttachments(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fileIDs) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(fileIDs))
	}
}

func TestPutAttachmentValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.PutAttachment(ctx, &models.AttachmentRecord{FileID: "f1"}); err == nil {
		t.Fatal("expected error for missing board id")
	}
	if err := st.PutAttachment(ctx, &models.AttachmentRecord{BoardID: 1}); err == nil {
		t.Fatal("expected error for missing file id")
	}
}

func TestAttachmentsScopedPerBoard(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, rec := range []models.AttachmentRecord{
		{BoardID: 1, FileID: "a", Blob: []byte("1a")},
		{BoardID: 1, FileID: "b", Blob: []byte("1b")},
		{BoardID: 2, FileID: "a", Blob: []byte("2a")},
	} {
		if err := st.PutAttachment(ctx, &rec); err != nil {
			t.Fatalf("put %d/%s: %v", rec.BoardID, rec.FileID, err)
		}
	}

	board1, err := st.ListAttachments(ctx, 1)
	if err != nil {
		t.Fatalf("list board 1: %v", err)
	}
	if len(board1) != 2 {
		t.Fatalf("expected 2 attachments for board 1, got %v", board1)
	}

	// Same file id on another board is an independent record.
	got, err := st.GetAttachment(ctx, 2, "a")
	if err != nil {
		t.Fatalf("get 2/a: %v", err)
	}
	if string(got.Blob) != "2a" {
		t.Fatalf("wrong blob for board 2: %q", got.Blob)
	}
}

func TestDeleteAttachment(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.PutAttachment(ctx, &models.AttachmentRecord{BoardID: 1, FileID: "a", Blob: []byte("x")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.DeleteAttachment(ctx, 1, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.GetAttachment(ctx, 1, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing record is not an error.
	if err := st.DeleteAttachment(ctx, 1, "a"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.SaveSnapshot(ctx, 1, testScene(t, "")); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	for _, fileID := range []string{"a", "b", "c"} {
		if err := st.PutAttachment(ctx, &models.AttachmentRecord{BoardID: 1, FileID: fileID, Blob: []byte(fileID)}); err != nil {
			t.Fatalf("put %s: %v", fileID, err)
		}
	}
	if err := st.PutAttachment(ctx, &models.AttachmentRecord{BoardID: 2, FileID: "a", Blob: []byte("keep")}); err != nil {
		t.Fatalf("put other board: %v", err)
	}

	if err := st.DeleteBoard(ctx, 1); err != nil {
		t.Fatalf("delete board: %v", err)
	}

	if _, err := st.LoadSnapshot(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected snapshot gone, got %v", err)
	}
	fileIDs, err := st.ListAttachments(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fileIDs) != 0 {
		t.Fatalf("expected zero attachments after cascade, got %v", fileIDs)
	}

	// Other boards are untouched.
	if _, err := st.GetAttachment(ctx, 2, "a"); err != nil {
		t.Fatalf("board 2 attachment lost: %v", err)
	}
}

func TestSaveBoardStateAtomicAdoption(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	scene := testScene(t, `{"elements":[{"type":"image","id":"i1","fileId":"f1"}],"appState":{}}`)
	records := []models.AttachmentRecord{
		{BoardID: 3, FileID: "f1", Blob: []byte("blob-1"), MimeType: "image/png"},
		{BoardID: 3, FileID: "f2", Blob: []byte("blob-2"), MimeType: "image/jpeg"},
	}
	if err := st.SaveBoardState(ctx, 3, scene, records); err != nil {
		t.Fatalf("save board state: %v", err)
	}

	if _, err := st.LoadSnapshot(ctx, 3); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	fileIDs, err := st.ListAttachments(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fileIDs) != 2 {
		t.Fatalf("expected 2 attachments, got %v", fileIDs)
	}

	// Existing keys stay first-write-wins through the batch path too.
	records[0].Blob = []byte("changed")
	if err := st.SaveBoardState(ctx, 3, scene, records[:1]); err != nil {
		t.Fatalf("second save board state: %v", err)
	}
	got, err := st.GetAttachment(ctx, 3, "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Blob) != "blob-1" {
		t.Fatalf("batch path overwrote blob: %q", got.Blob)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := st.SaveSnapshot(context.Background(), 1, models.Scene{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations over an up-to-date schema.
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	if _, err := st2.LoadSnapshot(context.Background(), 1); err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
}
