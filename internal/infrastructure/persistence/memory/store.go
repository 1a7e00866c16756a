// Package memory implements the process-wide cache store holding the latest
// normalized records per account. Period-scoped domains (grades, attendance,
// evaluations) are keyed by period name; week-scoped domains (timetable,
// homework, bookings) by epoch week number.
//
// Entries are created on first fetch, replaced wholesale on refresh and never
// expire: staleness is resolved entirely by caller-triggered refetch. Writes
// are last-write-wins by default; the per-key generation counter lets callers
// that care order concurrent refreshes by issuance instead of completion.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// Key addresses one cache entry: an account, a feature and either a period
// name or an epoch week number.
type Key struct {
	Account uuid.UUID       `json:"account"`
	Feature account.Feature `json:"feature"`
	Period  string          `json:"period,omitempty"`
	Week    int             `json:"week,omitempty"`
	ByWeek  bool            `json:"by_week,omitempty"`
}

// PeriodKey builds a key for a period-scoped domain.
func PeriodKey(acct uuid.UUID, feature account.Feature, period string) Key {
	return Key{Account: acct, Feature: feature, Period: period}
}

// WeekKey builds a key for a week-scoped domain.
func WeekKey(acct uuid.UUID, feature account.Feature, week int) Key {
	return Key{Account: acct, Feature: feature, Week: week, ByWeek: true}
}

// String renders the key for logs and snapshot storage.
func (k Key) String() string {
	if k.ByWeek {
		return fmt.Sprintf("%s:%s:w%d", k.Account, k.Feature, k.Week)
	}
	return fmt.Sprintf("%s:%s:p%s", k.Account, k.Feature, k.Period)
}

// entry is one stored record list with its write generation.
type entry[T any] struct {
	records  []T
	gen      uint64
	storedAt time.Time
}

// Table is one domain's keyed storage. Readers never mutate; the only write
// paths are Set and SetIfNewer.
type Table[T any] struct {
	mu      sync.RWMutex
	entries map[Key]entry[T]
	issued  map[Key]uint64
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries: make(map[Key]entry[T]),
		issued:  make(map[Key]uint64),
	}
}

// Get returns the cached records for key, or ok=false when the key was never
// written. The returned slice is shared: callers must not mutate it.
func (t *Table[T]) Get(key Key) (records []T, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	return e.records, true
}

// StoredAt returns when the entry was last written.
func (t *Table[T]) StoredAt(key Key) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e.storedAt, ok
}

// Set replaces the entry wholesale (no merge). Concurrent Set calls are
// last-write-wins by completion order.
func (t *Table[T]) Set(key Key, records []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued[key]++
	t.entries[key] = entry[T]{
		records:  records,
		gen:      t.issued[key],
		storedAt: time.Now().UTC(),
	}
}

// Begin reserves a generation for an in-flight refresh. Passing it to
// SetIfNewer orders concurrent refreshes by issuance instead of completion.
func (t *Table[T]) Begin(key Key) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued[key]++
	return t.issued[key]
}

// SetIfNewer writes the entry only when gen is not older than the stored
// one. Returns whether the write happened.
func (t *Table[T]) SetIfNewer(key Key, gen uint64, records []T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok && e.gen > gen {
		return false
	}
	t.entries[key] = entry[T]{
		records:  records,
		gen:      gen,
		storedAt: time.Now().UTC(),
	}
	return true
}

// Delete removes an entry.
func (t *Table[T]) Delete(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Dump exports every entry, for snapshot persistence.
func (t *Table[T]) Dump() map[Key][]T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Key][]T, len(t.entries))
	for k, e := range t.entries {
		out[k] = e.records
	}
	return out
}

// Restore loads previously dumped entries without bumping generations of
// keys written since.
func (t *Table[T]) Restore(entries map[Key][]T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, records := range entries {
		if _, exists := t.entries[k]; exists {
			continue
		}
		t.entries[k] = entry[T]{records: records, storedAt: time.Now().UTC()}
	}
}

// CacheStore groups the per-domain tables plus the period lists of each
// account. Lifetime is the process lifetime.
type CacheStore struct {
	Grades      *Table[record.Grade]
	Attendance  *Table[record.AttendanceEvent]
	Evaluations *Table[record.Evaluation]
	Timetable   *Table[record.Lesson]
	Homework    *Table[record.Homework]
	Chats       *Table[record.ChatThread]
	Balances    *Table[record.Balance]
	Bookings    *Table[record.BookingDay]

	mu      sync.RWMutex
	periods map[uuid.UUID]record.PeriodList
}

// NewCacheStore creates an empty cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		Grades:      NewTable[record.Grade](),
		Attendance:  NewTable[record.AttendanceEvent](),
		Evaluations: NewTable[record.Evaluation](),
		Timetable:   NewTable[record.Lesson](),
		Homework:    NewTable[record.Homework](),
		Chats:       NewTable[record.ChatThread](),
		Balances:    NewTable[record.Balance](),
		Bookings:    NewTable[record.BookingDay](),
		periods:     make(map[uuid.UUID]record.PeriodList),
	}
}

// SetPeriods stores the period list of an account and the name of its
// default period, replacing any previous list.
func (s *CacheStore) SetPeriods(acct uuid.UUID, periods []record.Period, defaultName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[acct] = record.PeriodList{Periods: periods, DefaultName: defaultName}
}

// Periods returns the stored period list of an account.
func (s *CacheStore) Periods(acct uuid.UUID) (record.PeriodList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.periods[acct]
	return list, ok
}
