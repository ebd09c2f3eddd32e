package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/mediassist/internal/booking"
)

const (
	// StampLayout is the wall-clock format used for RecordedAt.
	StampLayout = "03:04 PM"

	cancelledSuffix = " (Cancelled)"
)

// CancelOutcome reports how a cancellation request was reconciled.
type CancelOutcome string

const (
	// Matched means an existing active booking was flipped to cancelled.
	Matched CancelOutcome = "matched"
	// Unmatched means no active booking matched and a standalone cancelled record was added.
	Unmatched CancelOutcome = "unmatched"
)

// CancelResult describes a reconciled cancellation.
type CancelResult struct {
	Outcome CancelOutcome
	// Record is the cancelled record as stored in the ledger.
	Record booking.Record
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for RecordedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// Ledger is the ordered, newest-first history of bookings for a session.
// It is the only component allowed to mutate records.
type Ledger struct {
	mu      sync.RWMutex
	records []booking.Record
	now     func() time.Time
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore replaces the ledger contents with previously persisted records,
// which must already be newest-first.
func (l *Ledger) Restore(records []booking.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append([]booking.Record(nil), records...)
}

// Insert stamps the record and prepends it. Duplicates are allowed.
func (l *Ledger) Insert(rec booking.Record) booking.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.RecordedAt = l.stamp()
	l.prepend(rec)
	return rec
}

// Cancel reconciles a cancellation request by patient name. The newest active
// record whose name contains, or is contained in, the requested name is
// cancelled. Without a match a standalone cancelled record is prepended so the
// event is never lost.
func (l *Ledger) Cancel(req booking.Record) CancelResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamp := l.stamp()
	if idx := l.findActive(req.PatientName); idx >= 0 {
		rec := l.records[idx]
		rec.Status = booking.StatusCancelled
		rec.RecordedAt = stamp + cancelledSuffix
		l.records[idx] = rec
		return CancelResult{Outcome: Matched, Record: rec}
	}

	req.Status = booking.StatusCancelled
	req.RecordedAt = stamp
	l.prepend(req)
	return CancelResult{Outcome: Unmatched, Record: req}
}

// CancelByName is Cancel for callers that only know the patient name.
func (l *Ledger) CancelByName(patientName string) CancelResult {
	return l.Cancel(booking.Record{PatientName: patientName})
}

// Clear empties the ledger. Callers confirm with the user first.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Snapshot returns a copy of the records, newest-first.
func (l *Ledger) Snapshot() []booking.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]booking.Record(nil), l.records...)
}

// Len returns the number of records, cancelled ones included.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) findActive(name string) int {
	want := normalizeName(name)
	if want == "" {
		return -1
	}
	for i, rec := range l.records {
		if rec.IsCancelled() {
			continue
		}
		have := normalizeName(rec.PatientName)
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return i
		}
	}
	return -1
}

func (l *Ledger) prepend(rec booking.Record) {
	l.records = append(l.records, booking.Record{})
	copy(l.records[1:], l.records)
	l.records[0] = rec
}

func (l *Ledger) stamp() string {
	return l.now().Format(StampLayout)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
