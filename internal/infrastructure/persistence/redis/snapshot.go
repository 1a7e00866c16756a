// Package redis persists snapshots of the in-memory cache store, so a
// restarted process serves the last known records instead of an empty view
// until the first refresh lands.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/memory"
	"github.com/papillon-hub/papillon-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ErrSnapshotMissing is returned when no snapshot has been stored yet.
var ErrSnapshotMissing = errors.New("redis: no snapshot stored")

// snapshotKey is the single Redis key the whole cache snapshot lives under.
const snapshotKey = "papillon:cache:snapshot"

// TTLSnapshot bounds how long a stale snapshot survives an outage. Records
// older than a week are not worth restoring.
const TTLSnapshot = 7 * 24 * time.Hour

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// tableDump is the serializable form of one table: struct keys cannot be
// JSON map keys, so entries are flattened into pairs.
type tableDump[T any] struct {
	Key     memory.Key `json:"key"`
	Records []T        `json:"records"`
}

// snapshotDTO is the serialized cache store.
type snapshotDTO struct {
	TakenAt     time.Time                           `json:"taken_at"`
	Grades      []tableDump[record.Grade]           `json:"grades,omitempty"`
	Attendance  []tableDump[record.AttendanceEvent] `json:"attendance,omitempty"`
	Evaluations []tableDump[record.Evaluation]      `json:"evaluations,omitempty"`
	Timetable   []tableDump[record.Lesson]          `json:"timetable,omitempty"`
	Homework    []tableDump[record.Homework]        `json:"homework,omitempty"`
	Chats       []tableDump[record.ChatThread]      `json:"chats,omitempty"`
	Balances    []tableDump[record.Balance]         `json:"balances,omitempty"`
	Bookings    []tableDump[record.BookingDay]      `json:"bookings,omitempty"`
}

// SnapshotStore persists cache snapshots in Redis.
type SnapshotStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewSnapshotStore creates a snapshot store and pings the server.
func NewSnapshotStore(ctx context.Context, cfg Config, log *logger.Logger) (*SnapshotStore, error) {
	if log == nil {
		log = logger.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &SnapshotStore{
		client: client,
		log:    log.With(logger.Component("snapshot")),
	}, nil
}

// Close closes the Redis client.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

func dumpTable[T any](t *memory.Table[T]) []tableDump[T] {
	entries := t.Dump()
	out := make([]tableDump[T], 0, len(entries))
	for k, records := range entries {
		out = append(out, tableDump[T]{Key: k, Records: records})
	}
	return out
}

func restoreTable[T any](t *memory.Table[T], dumps []tableDump[T]) {
	if len(dumps) == 0 {
		return
	}
	entries := make(map[memory.Key][]T, len(dumps))
	for _, d := range dumps {
		entries[d.Key] = d.Records
	}
	t.Restore(entries)
}

// Save serializes the whole cache store and writes it under a single key.
func (s *SnapshotStore) Save(ctx context.Context, store *memory.CacheStore) error {
	dto := snapshotDTO{
		TakenAt:     time.Now().UTC(),
		Grades:      dumpTable(store.Grades),
		Attendance:  dumpTable(store.Attendance),
		Evaluations: dumpTable(store.Evaluations),
		Timetable:   dumpTable(store.Timetable),
		Homework:    dumpTable(store.Homework),
		Chats:       dumpTable(store.Chats),
		Balances:    dumpTable(store.Balances),
		Bookings:    dumpTable(store.Bookings),
	}

	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, TTLSnapshot).Err(); err != nil {
		return fmt.Errorf("redis: store snapshot: %w", err)
	}

	s.log.Debug("snapshot saved", logger.Int("bytes", len(data)))
	return nil
}

// Load restores the last snapshot into the cache store. Entries written since
// process start win over snapshot entries.
func (s *SnapshotStore) Load(ctx context.Context, store *memory.CacheStore) error {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSnapshotMissing
	}
	if err != nil {
		return fmt.Errorf("redis: load snapshot: %w", err)
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return fmt.Errorf("redis: decode snapshot: %w", err)
	}

	restoreTable(store.Grades, dto.Grades)
	restoreTable(store.Attendance, dto.Attendance)
	restoreTable(store.Evaluations, dto.Evaluations)
	restoreTable(store.Timetable, dto.Timetable)
	restoreTable(store.Homework, dto.Homework)
	restoreTable(store.Chats, dto.Chats)
	restoreTable(store.Balances, dto.Balances)
	restoreTable(store.Bookings, dto.Bookings)

	s.log.Info("snapshot restored", logger.Time("taken_at", dto.TakenAt))
	return nil
}
