// Package sync keeps board scenes and their attachment blobs synchronized
// between the remote board service and the local offline replica.
//
// The engine is the only caller of the local store, the gateway client,
// the transfer scheduler, and the reference collector. Conflict policy is
// last-writer-wins at board granularity: whichever of the local snapshot
// or the remote board is adopted on open fully replaces the other.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"boardsync/internal/api"
	"boardsync/internal/models"
	"boardsync/internal/transfer"
)

const (
	// DefaultConcurrency bounds simultaneously in-flight attachment
	// transfers per batch.
	DefaultConcurrency = 3

	// DefaultAutosaveDelay is how long a board must stay unmutated before
	// the local-only autosave fires.
	DefaultAutosaveDelay = 5 * time.Second

	autosaveTimeout = 30 * time.Second
)

// Gateway is the remote board service surface the engine depends on.
// *api.Client satisfies it.
type Gateway interface {
	GetBoard(ctx context.Context, id int64) (api.Board, error)
	UpdateBoard(ctx context.Context, id int64, req api.BoardUpdateRequest) error
	DeleteBoard(ctx context.Context, id int64) error
	ListBoardFiles(ctx context.Context, id int64) ([]string, error)
	DownloadBoardFile(ctx context.Context, id int64, fileID string) (api.BoardFile, error)
	UploadBoardFile(ctx context.Context, id int64, fileID string, blob []byte) error
}

// LocalStore is the local replica surface the engine depends on.
// *store.Store satisfies it.
type LocalStore interface {
	LoadSnapshot(ctx context.Context, boardID int64) (*models.Snapshot, error)
	SaveSnapshot(ctx context.Context, boardID int64, scene models.Scene) error
	SaveBoardState(ctx context.Context, boardID int64, scene models.Scene, records []models.AttachmentRecord) error
	PutAttachment(ctx context.Context, record *models.AttachmentRecord) error
	GetAttachment(ctx context.Context, boardID int64, fileID string) (*models.AttachmentRecord, error)
	ListAttachments(ctx context.Context, boardID int64) ([]string, error)
	DeleteAttachment(ctx context.Context, boardID int64, fileID string) error
	DeleteBoard(ctx context.Context, boardID int64) error
}

// Options tune an Engine. Zero values select defaults.
type Options struct {
	Concurrency   int
	AutosaveDelay time.Duration
	Logger        *slog.Logger
}

// Engine orchestrates board open, save, reload, and deletion against the
// local store and the remote gateway.
type Engine struct {
	store       LocalStore
	gateway     Gateway
	logger      *slog.Logger
	concurrency int
	autosave    *debouncer

	sessions *sessionTable
}

// New creates an Engine. The store must already be open; the engine never
// tears it down.
func New(localStore LocalStore, gateway Gateway, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = DefaultAutosaveDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		store:       localStore,
		gateway:     gateway,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
		autosave:    newDebouncer(opts.AutosaveDelay),
		sessions:    newSessionTable(),
	}
}

// State returns the current session state for a board.
func (e *Engine) State(boardID int64) State {
	return e.sessions.get(boardID).current()
}

// OpenResult is the outcome of Open or ForceReload.
type OpenResult struct {
	Snapshot   *models.Snapshot
	FromRemote bool

	// TransferWarning aggregates per-attachment download failures.
	// Non-nil only when the open itself still succeeded.
	TransferWarning error
}

// Open loads a board session, offline-first: a local snapshot always wins
// over the remote copy. When no local snapshot exists the board is fetched
// from the remote service, its attachments downloaded with bounded
// concurrency, and the result persisted locally before being adopted.
//
// A remote failure on the no-local path (or on the access check) leaves
// the session in StateError; the caller abandons the board session.
func (e *Engine) Open(ctx context.Context, boardID int64) (OpenResult, error) {
	s := e.sessions.get(boardID)
	token := s.begin(StateLoading)

	snapshot, err := e.store.LoadSnapshot(ctx, boardID)
	switch {
	case err == nil:
		// Local copy wins. The remote board is still fetched so that a
		// revoked or deleted board fails the session instead of silently
		// serving stale local state forever.
		if _, err := e.gateway.GetBoard(ctx, boardID); err != nil {
			s.fail(token)
			return OpenResult{}, fmt.Errorf("open board %d: %w", boardID, err)
		}
		if _, err := s.commit(token, nil); err != nil {
			s.fail(token)
			return OpenResult{}, err
		}
		s.settle(token, StateReady)
		e.logger.Debug("opened board from local snapshot", "board", boardID)
		return OpenResult{Snapshot: snapshot}, nil

	case isNotFound(err):
		return e.loadFromRemote(ctx, s, token, boardID)

	default:
		s.fail(token)
		return OpenResult{}, fmt.Errorf("open board %d: %w", boardID, err)
	}
}

// ForceReload unconditionally re-fetches the board from the remote
// service and overwrites local state: the escape hatch of the
// last-writer-wins policy.
func (e *Engine) ForceReload(ctx context.Context, boardID int64) (OpenResult, error) {
	s := e.sessions.get(boardID)
	token := s.begin(StateLoading)
	return e.loadFromRemote(ctx, s, token, boardID)
}

func (e *Engine) loadFromRemote(ctx context.Context, s *session, token uint64, boardID int64) (OpenResult, error) {
	board, err := e.gateway.GetBoard(ctx, boardID)
	if err != nil {
		s.fail(token)
		return OpenResult{}, fmt.Errorf("fetch board %d: %w", boardID, err)
	}

	scene, err := models.ParseSceneData(board.Data)
	if err != nil {
		s.fail(token)
		return OpenResult{}, fmt.Errorf("board %d: %w", boardID, err)
	}

	fileIDs, err := e.gateway.ListBoardFiles(ctx, boardID)
	if err != nil {
		s.fail(token)
		return OpenResult{}, fmt.Errorf("list files for board %d: %w", boardID, err)
	}

	// All downloads complete (or are accounted as failed) before anything
	// is persisted; a partial attachment set is never written as complete.
	files := make([]api.BoardFile, len(fileIDs))
	tasks := make([]transfer.Task, len(fileIDs))
	for i, fileID := range fileIDs {
		i, fileID := i, fileID
		tasks[i] = func(ctx context.Context) error {
			file, err := e.gateway.DownloadBoardFile(ctx, boardID, fileID)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		}
	}
	results, err := transfer.Run(ctx, tasks, e.concurrency)
	if err != nil {
		s.fail(token)
		return OpenResult{}, err
	}
	warning := transfer.Join(results)
	if warning != nil {
		e.logger.Warn("some attachment downloads failed",
			"board", boardID, "failed", transfer.FailedCount(results), "total", len(results))
	}

	now := time.Now().UTC()
	records := make([]models.AttachmentRecord, 0, len(files))
	for i, file := range files {
		if !results[i].OK() {
			continue
		}
		records = append(records, models.AttachmentRecord{
			BoardID:   boardID,
			FileID:    file.FileID,
			Blob:      file.Blob,
			MimeType:  file.MimeType,
			CreatedAt: now,
		})
	}

	applied, err := s.commit(token, func() error {
		return e.store.SaveBoardState(ctx, boardID, scene, records)
	})
	if err != nil {
		s.fail(token)
		return OpenResult{}, fmt.Errorf("persist board %d: %w", boardID, err)
	}
	if !applied {
		e.logger.Debug("stale load discarded", "board", boardID, "token", token)
		return OpenResult{}, nil
	}
	s.settle(token, StateReady)

	return OpenResult{
		Snapshot: &models.Snapshot{
			BoardID:   boardID,
			Scene:     scene,
			UpdatedAt: now,
		},
		FromRemote:      true,
		TransferWarning: warning,
	}, nil
}

// SaveResult is the outcome of an explicit Save.
type SaveResult struct {
	// Uploaded counts attachments transferred to the remote service.
	Uploaded int

	// UploadWarning aggregates per-attachment upload failures. Uploads
	// are not on the save critical path; the scene record is.
	UploadWarning error

	// Discarded is true when a newer write committed first and this
	// save's local snapshot write was dropped (not an error).
	Discarded bool

	GC GCResult
}

// Save pushes the scene to the remote service, uploads attachment blobs
// the remote does not hold yet, persists the snapshot locally, and runs
// the reference collector.
//
// A local persist failure fails the save even though the remote PUT
// succeeded; the stale local copy wins until the user forces a reload.
func (e *Engine) Save(ctx context.Context, boardID int64, scene models.Scene) (SaveResult, error) {
	s := e.sessions.get(boardID)
	token := s.begin(StateSaving)

	data, err := scene.EncodeData()
	if err != nil {
		s.fail(token)
		return SaveResult{}, err
	}
	if err := e.gateway.UpdateBoard(ctx, boardID, api.BoardUpdateRequest{Data: data}); err != nil {
		s.fail(token)
		return SaveResult{}, fmt.Errorf("save board %d: %w", boardID, err)
	}

	result := SaveResult{}
	uploaded, warning, err := e.uploadMissing(ctx, boardID)
	if err != nil {
		// Enumeration failed; the scene itself is already saved remotely.
		warning = err
	}
	result.Uploaded = uploaded
	result.UploadWarning = warning
	if warning != nil {
		e.logger.Warn("attachment upload incomplete", "board", boardID, "uploaded", uploaded)
	}

	applied, err := s.commit(token, func() error {
		return e.store.SaveSnapshot(ctx, boardID, scene)
	})
	if err != nil {
		s.fail(token)
		return result, fmt.Errorf("persist snapshot for board %d: %w", boardID, err)
	}
	if !applied {
		e.logger.Debug("stale save discarded", "board", boardID, "token", token)
		result.Discarded = true
		return result, nil
	}

	gc, gcErr := e.collectGarbage(ctx, boardID, scene)
	if gcErr != nil {
		e.logger.Warn("reference collection incomplete", "board", boardID, "error", gcErr)
	}
	result.GC = gc

	s.settle(token, StateReady)
	return result, nil
}

// uploadMissing uploads local attachments absent from the remote file
// index, with bounded concurrency. The remote index is fetched fresh here
// and never cached across sync operations.
func (e *Engine) uploadMissing(ctx context.Context, boardID int64) (int, error, error) {
	remoteIDs, err := e.gateway.ListBoardFiles(ctx, boardID)
	if err != nil {
		return 0, nil, fmt.Errorf("list remote files for board %d: %w", boardID, err)
	}
	localIDs, err := e.store.ListAttachments(ctx, boardID)
	if err != nil {
		return 0, nil, fmt.Errorf("list local attachments for board %d: %w", boardID, err)
	}

	remote := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remote[id] = struct{}{}
	}

	var toUpload []string
	for _, id := range localIDs {
		if _, ok := remote[id]; !ok {
			toUpload = append(toUpload, id)
		}
	}
	if len(toUpload) == 0 {
		return 0, nil, nil
	}

	tasks := make([]transfer.Task, len(toUpload))
	for i, fileID := range toUpload {
		i, fileID := i, fileID
		tasks[i] = func(ctx context.Context) error {
			record, err := e.store.GetAttachment(ctx, boardID, fileID)
			if err != nil {
				return err
			}
			return e.gateway.UploadBoardFile(ctx, boardID, fileID, record.Blob)
		}
	}
	results, err := transfer.Run(ctx, tasks, e.concurrency)
	if err != nil {
		return 0, nil, err
	}
	return len(results) - transfer.FailedCount(results), transfer.Join(results), nil
}

// NoteChange records a scene mutation and (re)arms the autosave debounce
// timer. When the timer fires without further mutations the scene is
// persisted locally only: no remote calls and no reference collection,
// since blobs referenced by very recent edits may not be stored yet.
func (e *Engine) NoteChange(boardID int64, scene models.Scene) {
	s := e.sessions.get(boardID)
	token := s.nextToken()

	e.autosave.Arm(boardID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
		defer cancel()

		applied, err := s.commit(token, func() error {
			return e.store.SaveSnapshot(ctx, boardID, scene)
		})
		switch {
		case err != nil:
			e.logger.Warn("autosave failed", "board", boardID, "error", err)
		case !applied:
			e.logger.Debug("stale autosave discarded", "board", boardID, "token", token)
		default:
			e.logger.Debug("autosaved board", "board", boardID)
		}
	})
}

// Close ends a board session: the pending autosave timer is cancelled and
// results of already-dispatched operations are discarded on arrival.
func (e *Engine) Close(boardID int64) {
	e.autosave.Cancel(boardID)
	e.sessions.get(boardID).close()
}

// DeleteBoard deletes the board remotely and cascades the local deletion
// of its snapshot and attachments. A board already gone remotely still
// has its local replica removed.
func (e *Engine) DeleteBoard(ctx context.Context, boardID int64) error {
	e.autosave.Cancel(boardID)

	if err := e.gateway.DeleteBoard(ctx, boardID); err != nil && !api.IsNotFound(err) {
		return fmt.Errorf("delete board %d: %w", boardID, err)
	}
	if err := e.store.DeleteBoard(ctx, boardID); err != nil {
		return fmt.Errorf("delete local board %d: %w", boardID, err)
	}
	e.sessions.get(boardID).close()
	return nil
}

// ImportAttachment stores a locally produced blob under a fresh file id
// and returns the image element referencing it. The blob becomes durable
// immediately; the element joins the scene on the next save.
func (e *Engine) ImportAttachment(ctx context.Context, boardID int64, blob []byte, mimeType string) (models.Element, error) {
	fileID := uuid.NewString()
	record := models.AttachmentRecord{
		BoardID:  boardID,
		FileID:   fileID,
		Blob:     blob,
		MimeType: mimeType,
	}
	if err := e.store.PutAttachment(ctx, &record); err != nil {
		return models.Element{}, err
	}
	e.logger.Debug("imported attachment", "board", boardID, "file", fileID, "bytes", len(blob))
	return models.NewImageElement(fileID), nil
}
