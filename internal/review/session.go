package review

import (
	"context"
	"sync"

	"github.com/hpx/cull/internal/config"
	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/loader"
	"github.com/hpx/cull/internal/media"
	"github.com/hpx/cull/internal/progress"
	"github.com/hpx/cull/internal/trash"
	"github.com/hpx/cull/internal/window"
)

// thumbMaxDim bounds thumbnail decodes requested through the session.
const thumbMaxDim = 256

// Session is the single-owner review engine: one active reviewer walking the
// catalog one item at a time. It owns the window, the pending-deletion queue,
// the ledger, and the persisted progress value; all mutation goes through its
// operations under one lock, so driver surfaces (CLI, MCP) can share it.
type Session struct {
	mu     sync.Mutex
	cfg    *config.Config
	window *window.Manager
	trash  *trash.Queue
	ledger *Ledger
	store  progress.Store
	prog   *progress.SessionProgress
	thumbs *loader.Loader
}

// NewSession assembles a session from its collaborators. Call Start before
// any review operation.
func NewSession(cfg *config.Config, w *window.Manager, q *trash.Queue, store progress.Store) *Session {
	return &Session{
		cfg:    cfg,
		window: w,
		trash:  q,
		ledger: NewLedger(cfg.MaxHistory),
		store:  store,
	}
}

// SetThumbnailLoader attaches a reduced-size loader backed by its own cache
// tier. Optional; without one Thumbnail reports an invalid request.
func (s *Session) SetThumbnailLoader(l *loader.Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thumbs = l
}

// Start loads persisted progress (or begins a fresh session when none is
// saved) and fills the window at the saved cursor.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		prog, err = progress.New(s.window.CatalogSize())
		if err != nil {
			return errors.NewInternal(err)
		}
	}
	s.prog = prog
	s.ledger.SetCounts(prog.Accepted, prog.Rejected)

	if err := s.window.Initialize(ctx, prog.Cursor); err != nil {
		return err
	}

	// The catalog may have grown or shrunk since the last run; Initialize
	// clamped the cursor, so record what we actually resumed at.
	s.prog.Cursor = s.window.Cursor()
	s.prog.Total = s.window.CatalogSize()
	return s.store.Save(ctx, s.prog)
}

// CurrentOutput describes the front window item.
type CurrentOutput struct {
	ID        string        `json:"id"`
	Quality   media.Quality `json:"quality"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	ByteSize  int64         `json:"byte_size"`
	Cursor    int           `json:"cursor"`
	Total     int           `json:"total"`
	Remaining int           `json:"window_remaining"`
}

// Current returns the item at the front of the window, the one under review.
func (s *Session) Current() (*CurrentOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}
	front := s.window.Front()
	if front == nil {
		return nil, errors.NewNotFound("current item (window empty)")
	}
	return &CurrentOutput{
		ID:        front.Item.ID,
		Quality:   front.Quality,
		Width:     front.Content.Width,
		Height:    front.Content.Height,
		ByteSize:  front.Item.ByteSize,
		Cursor:    s.window.Cursor(),
		Total:     s.window.CatalogSize(),
		Remaining: s.window.Len(),
	}, nil
}

// Thumbnail resolves a reduced preview of the item under review through the
// thumbnail cache tier.
func (s *Session) Thumbnail(ctx context.Context) (*CurrentOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}
	if s.thumbs == nil {
		return nil, errors.NewInvalidRequest("no thumbnail loader configured")
	}
	front := s.window.Front()
	if front == nil {
		return nil, errors.NewNotFound("current item (window empty)")
	}

	hint := media.SizeHint{MaxWidth: thumbMaxDim, MaxHeight: thumbMaxDim}
	loaded, err := s.thumbs.Resolve(ctx, front.Item, hint, s.cfg.AllowNetwork)
	if err != nil {
		return nil, err
	}
	return &CurrentOutput{
		ID:        loaded.Item.ID,
		Quality:   loaded.Quality,
		Width:     loaded.Content.Width,
		Height:    loaded.Content.Height,
		ByteSize:  loaded.Item.ByteSize,
		Cursor:    s.window.Cursor(),
		Total:     s.window.CatalogSize(),
		Remaining: s.window.Len(),
	}, nil
}

// DecisionOutput summarizes the session state after a decision.
type DecisionOutput struct {
	ID             string   `json:"id"`
	Decision       Decision `json:"decision"`
	Position       int      `json:"position"`
	Accepted       int      `json:"accepted"`
	Rejected       int      `json:"rejected"`
	Cursor         int      `json:"cursor"`
	Remaining      int      `json:"window_remaining"`
	PendingDeletes int      `json:"pending_deletes"`
	Done           bool     `json:"done"`
	FlushError     string   `json:"flush_error,omitempty"`
}

// Accept keeps the item under review and advances.
func (s *Session) Accept(ctx context.Context) (*DecisionOutput, error) {
	return s.DecideAt(ctx, 0, DecisionAccept)
}

// Reject marks the item under review for deferred deletion and advances.
func (s *Session) Reject(ctx context.Context) (*DecisionOutput, error) {
	return s.DecideAt(ctx, 0, DecisionReject)
}

// DecideAt records a decision for the item at the given window position.
// Position 0 is the normal front-of-window flow and advances the cursor;
// direct-selection decisions at other positions record history and counters
// but leave the cursor alone.
//
// A reject enqueues the identifier for deferred deletion; reaching the batch
// size or emptying the window triggers a flush as part of the same call.
// Authority failures do not fail the decision: the batch stays pending and
// the error is reported in the output.
func (s *Session) DecideAt(ctx context.Context, position int, d Decision) (*DecisionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}
	if d != DecisionAccept && d != DecisionReject {
		return nil, errors.NewInvalidRequest("decision must be one of: accept, reject")
	}

	item := s.window.RemoveAt(position)
	if item == nil {
		return nil, errors.NewNotFound("window item at requested position")
	}

	s.ledger.Record(d, item, position)
	if position == 0 {
		s.window.AdvanceCursor()
	}

	if d == DecisionReject {
		s.trash.Enqueue(item.Item.ID)
	}

	// Refill before checking depletion: the window is only "empty" when the
	// catalog has nothing left to offer.
	refillErr := s.window.RefillIfNeeded(ctx, 0)

	out := &DecisionOutput{
		ID:       item.Item.ID,
		Decision: d,
		Position: position,
	}
	if flushErr := s.trash.FlushIfDue(ctx, s.window.Len() == 0); flushErr != nil {
		out.FlushError = flushErr.Error()
	}

	s.syncProgress()
	if err := s.store.Save(ctx, s.prog); err != nil {
		return nil, err
	}
	if refillErr != nil {
		return nil, refillErr
	}

	out.Accepted = s.ledger.Accepted()
	out.Rejected = s.ledger.Rejected()
	out.Cursor = s.window.Cursor()
	out.Remaining = s.window.Len()
	out.PendingDeletes = s.trash.Len()
	out.Done = s.window.Exhausted()
	return out, nil
}

// UndoOutput summarizes the session state after an undo attempt.
type UndoOutput struct {
	Undone         bool     `json:"undone"`
	ID             string   `json:"id,omitempty"`
	Decision       Decision `json:"decision,omitempty"`
	Position       int      `json:"position"`
	Accepted       int      `json:"accepted"`
	Rejected       int      `json:"rejected"`
	PendingDeletes int      `json:"pending_deletes"`
}

// Undo reverses the most recent decision still in history. Undoing a reject
// restores the exact saved item at its recorded window position and retracts
// its pending deletion; undoing an accept only reverses the counter, since
// the content was already consumed and is not reinserted.
func (s *Session) Undo(ctx context.Context) (*UndoOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}

	entry, ok := s.ledger.Undo()
	out := &UndoOutput{
		Accepted: s.ledger.Accepted(),
		Rejected: s.ledger.Rejected(),
	}
	if !ok {
		out.PendingDeletes = s.trash.Len()
		return out, nil
	}

	if entry.Decision == DecisionReject {
		s.window.InsertAt(entry.Position, entry.Item)
		s.trash.Remove(entry.Item.Item.ID)
	}

	s.syncProgress()
	if err := s.store.Save(ctx, s.prog); err != nil {
		return nil, err
	}

	out.Undone = true
	out.ID = entry.Item.Item.ID
	out.Decision = entry.Decision
	out.Position = entry.Position
	out.Accepted = s.ledger.Accepted()
	out.Rejected = s.ledger.Rejected()
	out.PendingDeletes = s.trash.Len()
	return out, nil
}

// FlushOutput summarizes an explicit flush.
type FlushOutput struct {
	Flushed        bool `json:"flushed"`
	PendingDeletes int  `json:"pending_deletes"`
}

// Flush commits the pending-deletion batch now instead of waiting for an
// automatic trigger.
func (s *Session) Flush(ctx context.Context) (*FlushOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}
	if err := s.trash.Flush(ctx); err != nil {
		return nil, err
	}
	return &FlushOutput{Flushed: true, PendingDeletes: s.trash.Len()}, nil
}

// StatusOutput is the full session state snapshot.
type StatusOutput struct {
	SessionID      string `json:"session_id"`
	Cursor         int    `json:"cursor"`
	Total          int    `json:"total"`
	Accepted       int    `json:"accepted"`
	Rejected       int    `json:"rejected"`
	WindowLen      int    `json:"window_len"`
	PendingDeletes int    `json:"pending_deletes"`
	HistoryLen     int    `json:"history_len"`
	Done           bool   `json:"done"`
}

// Save persists the current progress snapshot immediately. Every mutating
// operation already saves; this exists for embedders that want a checkpoint
// without one.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return err
	}
	s.syncProgress()
	return s.store.Save(ctx, s.prog)
}

// Status reports the session state.
func (s *Session) Status() (*StatusOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.started(); err != nil {
		return nil, err
	}
	return &StatusOutput{
		SessionID:      s.prog.ID,
		Cursor:         s.window.Cursor(),
		Total:          s.window.CatalogSize(),
		Accepted:       s.ledger.Accepted(),
		Rejected:       s.ledger.Rejected(),
		WindowLen:      s.window.Len(),
		PendingDeletes: s.trash.Len(),
		HistoryLen:     s.ledger.Len(),
		Done:           s.window.Exhausted(),
	}, nil
}

// Reset discards persisted progress and restarts the session at the catalog
// head. History is cleared; pending deletions are kept, since nothing leaves
// the deletion queue except commit, reconciliation, or undo.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return err
	}

	prog, err := progress.New(s.window.CatalogSize())
	if err != nil {
		return errors.NewInternal(err)
	}
	s.prog = prog
	s.ledger = NewLedger(s.cfg.MaxHistory)

	if err := s.window.Initialize(ctx, 0); err != nil {
		return err
	}
	return s.store.Save(ctx, s.prog)
}

// Done reports whether the review is complete: window empty and catalog
// fully scanned.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prog != nil && s.window.Exhausted()
}

// syncProgress mirrors ledger counters and the window cursor into the
// persisted progress value.
func (s *Session) syncProgress() {
	s.prog.Cursor = s.window.Cursor()
	s.prog.Accepted = s.ledger.Accepted()
	s.prog.Rejected = s.ledger.Rejected()
}

func (s *Session) started() error {
	if s.prog == nil {
		return errors.NewInvalidRequest("session not started")
	}
	return nil
}
