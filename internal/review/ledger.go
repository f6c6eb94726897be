// Package review implements the decision ledger and the session facade that
// ties the window, the deletion queue, and persisted progress together.
package review

import (
	"time"

	"github.com/hpx/cull/internal/media"
)

// Decision is the outcome of reviewing one item.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// HistoryEntry records one decision with everything undo needs: the loaded
// item snapshot for reinsertion, the decision kind, and the window-relative
// position at decision time.
type HistoryEntry struct {
	Item     *media.Loaded
	Decision Decision
	Position int
	At       time.Time
}

// Ledger holds the cumulative accept/reject counters and a bounded
// most-recent-first history of decisions. Inserting beyond capacity drops
// the single oldest entry; once an entry is evicted its decision can no
// longer be undone.
type Ledger struct {
	maxHistory int
	entries    []HistoryEntry // most recent first
	accepted   int
	rejected   int
}

// NewLedger creates a ledger keeping at most maxHistory undoable decisions.
func NewLedger(maxHistory int) *Ledger {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Ledger{maxHistory: maxHistory}
}

// Record counts a decision and pushes it onto the history front. If the
// history is full, the oldest entry (the tail) is dropped.
func (l *Ledger) Record(d Decision, item *media.Loaded, position int) {
	switch d {
	case DecisionAccept:
		l.accepted++
	case DecisionReject:
		l.rejected++
	}

	l.entries = append([]HistoryEntry{{
		Item:     item,
		Decision: d,
		Position: position,
		At:       time.Now(),
	}}, l.entries...)

	if len(l.entries) > l.maxHistory {
		l.entries = l.entries[:l.maxHistory]
	}
}

// Undo pops the most recent entry and reverses its counter, clamping at
// zero. It reports false with a zero entry when the history is empty. Window
// and queue reversal are the session's responsibility.
func (l *Ledger) Undo() (HistoryEntry, bool) {
	if len(l.entries) == 0 {
		return HistoryEntry{}, false
	}

	entry := l.entries[0]
	l.entries = l.entries[1:]

	switch entry.Decision {
	case DecisionAccept:
		if l.accepted > 0 {
			l.accepted--
		}
	case DecisionReject:
		if l.rejected > 0 {
			l.rejected--
		}
	}
	return entry, true
}

// Accepted returns the cumulative accept count.
func (l *Ledger) Accepted() int { return l.accepted }

// Rejected returns the cumulative reject count.
func (l *Ledger) Rejected() int { return l.rejected }

// Len returns the number of undoable decisions.
func (l *Ledger) Len() int { return len(l.entries) }

// SetCounts restores counters from persisted progress when a session resumes.
func (l *Ledger) SetCounts(accepted, rejected int) {
	if accepted < 0 {
		accepted = 0
	}
	if rejected < 0 {
		rejected = 0
	}
	l.accepted = accepted
	l.rejected = rejected
}
