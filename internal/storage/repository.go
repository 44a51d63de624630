package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/store"
)

// SQLiteRepository is the durable record store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

var _ store.RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db:      db,
		queries: NewQueries(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

// WithClock replaces the time source used for default dates and timestamps.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	now := r.now()
	rec.ID = uuid.NewString()
	if rec.Date.IsZero() {
		rec.Date = now
	}
	rec.UpdatedAt = time.Time{}

	row := toRow(userID, rec)
	row.CreatedAt = now.UnixMilli()
	if err := r.queries.InsertRecord(ctx, row); err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}

	r.logger.DebugContext(ctx, "Record saved to SQLite",
		log.NewFields().WithRecord(userID, string(rec.Kind), rec.ID, rec.Amount.Paise).Args()...)
	return rec, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context, userID string, kind core.Kind) ([]core.Record, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	rows, err := r.queries.ListRecords(ctx, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Collection(), err)
	}
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID string, kind core.Kind, id string, patch core.RecordPatch) (core.Record, error) {
	if err := patch.Validate(kind); err != nil {
		return core.Record{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.GetRecord(ctx, userID, string(kind), id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, store.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}

	updated := patch.Apply(fromRow(row))
	updated.UpdatedAt = r.now()
	next := toRow(userID, updated)
	if _, err := q.UpdateRecord(ctx, next); err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string, kind core.Kind, id string) error {
	if err := r.queries.DeleteRecord(ctx, userID, string(kind), id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func toRow(userID string, rec core.Record) recordRow {
	row := recordRow{
		ID:          rec.ID,
		UserID:      userID,
		Kind:        string(rec.Kind),
		AmountPaise: rec.Amount.Paise,
		Category:    string(rec.Category),
		Title:       rec.Title,
		Method:      string(rec.Method),
	}
	if !rec.UpdatedAt.IsZero() {
		row.UpdatedAt = rec.UpdatedAt.UnixMilli()
	}
	if !rec.Date.IsZero() {
		row.Date = sql.NullInt64{Int64: rec.Date.UnixMilli(), Valid: true}
	}
	return row
}

func fromRow(row recordRow) core.Record {
	rec := core.Record{
		ID:       row.ID,
		Kind:     core.Kind(row.Kind),
		Amount:   core.Money{Paise: row.AmountPaise},
		Category: core.Category(row.Category),
		Title:    row.Title,
		Method:   core.Method(row.Method),
	}
	if row.UpdatedAt != 0 {
		rec.UpdatedAt = time.UnixMilli(row.UpdatedAt).UTC()
	}
	if row.Date.Valid {
		rec.Date = time.UnixMilli(row.Date.Int64).UTC()
	}
	return rec
}
