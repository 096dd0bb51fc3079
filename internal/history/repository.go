package history

import (
	"context"
	"database/sql"
	"time"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository interface {
	UpsertOperation(ctx context.Context, op *Operation) error
	GetOperation(ctx context.Context, id string) (*Operation, error)
	ListOperations(ctx context.Context, limit int) ([]*Operation, error)

	CreateRender(ctx context.Context, r *Render) error
	ListRenders(ctx context.Context, limit int) ([]*Render, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// UpsertOperation inserts op, or updates the status, stage and error of an
// existing row with the same id. created_at is kept from the first insert.
func (r *SQLiteRepository) UpsertOperation(ctx context.Context, op *Operation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operations (id, kind, status, stage, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			stage = excluded.stage,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, op.ID, op.Kind, op.Status, op.Stage, nullString(op.Error),
		op.CreatedAt.UTC().Format(timeLayout), op.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) GetOperation(ctx context.Context, id string) (*Operation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, status, stage, error, created_at, updated_at
		FROM operations WHERE id = ?
	`, id)

	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return op, err
}

func (r *SQLiteRepository) ListOperations(ctx context.Context, limit int) ([]*Operation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, status, stage, error, created_at, updated_at
		FROM operations ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (r *SQLiteRepository) CreateRender(ctx context.Context, rd *Render) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO renders (id, operation_id, video_path, source_url, query, snippet_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rd.ID, nullString(rd.OperationID), rd.VideoPath, rd.SourceURL, rd.Query, rd.SnippetCount,
		rd.CreatedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) ListRenders(ctx context.Context, limit int) ([]*Render, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, operation_id, video_path, source_url, query, snippet_count, created_at
		FROM renders ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renders []*Render
	for rows.Next() {
		var rd Render
		var opID sql.NullString
		var createdAt string
		if err := rows.Scan(&rd.ID, &opID, &rd.VideoPath, &rd.SourceURL, &rd.Query, &rd.SnippetCount, &createdAt); err != nil {
			return nil, err
		}
		rd.OperationID = opID.String
		rd.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		renders = append(renders, &rd)
	}
	return renders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(s scanner) (*Operation, error) {
	var op Operation
	var errMsg sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&op.ID, &op.Kind, &op.Status, &op.Stage, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	op.Error = errMsg.String
	op.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	op.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &op, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
