package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx runs the queries inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// recordRow mirrors a row of the records table. Times are Unix
// milliseconds; UpdatedAt is 0 for records never edited.
type recordRow struct {
	ID          string
	UserID      string
	Kind        string
	AmountPaise int64
	Date        sql.NullInt64
	Category    string
	Title       string
	Method      string
	CreatedAt   int64
	UpdatedAt   int64
}

const recordColumns = `id, user_id, kind, amount_paise, date, category, title, method, created_at, updated_at`

const insertRecord = `INSERT INTO records (` + recordColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecord(ctx context.Context, r recordRow) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		r.ID, r.UserID, r.Kind, r.AmountPaise, r.Date,
		r.Category, r.Title, r.Method, r.CreatedAt, r.UpdatedAt)
	return err
}

const listRecords = `SELECT ` + recordColumns + `
FROM records
WHERE user_id = ? AND kind = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListRecords(ctx context.Context, userID, kind string) ([]recordRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, userID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []recordRow
	for rows.Next() {
		var r recordRow
		if err := scanRecord(rows, &r); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRecord = `SELECT ` + recordColumns + `
FROM records
WHERE user_id = ? AND kind = ? AND id = ?`

func (q *Queries) GetRecord(ctx context.Context, userID, kind, id string) (recordRow, error) {
	var r recordRow
	err := scanRecord(q.db.QueryRowContext(ctx, getRecord, userID, kind, id), &r)
	return r, err
}

const updateRecord = `UPDATE records
SET amount_paise = ?, category = ?, title = ?, method = ?, updated_at = ?
WHERE user_id = ? AND kind = ? AND id = ?`

func (q *Queries) UpdateRecord(ctx context.Context, r recordRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecord,
		r.AmountPaise, r.Category, r.Title, r.Method, r.UpdatedAt,
		r.UserID, r.Kind, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRecord = `DELETE FROM records WHERE user_id = ? AND kind = ? AND id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, userID, kind, id string) error {
	_, err := q.db.ExecContext(ctx, deleteRecord, userID, kind, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, r *recordRow) error {
	return s.Scan(&r.ID, &r.UserID, &r.Kind, &r.AmountPaise, &r.Date,
		&r.Category, &r.Title, &r.Method, &r.CreatedAt, &r.UpdatedAt)
}
