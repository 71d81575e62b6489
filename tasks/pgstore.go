// Copyright (c) 2025 The Rusted Workshop Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_tasks (
	task_id         UUID PRIMARY KEY,
	s3_source_url   TEXT NOT NULL,
	s3_dest_bucket  TEXT NOT NULL,
	s3_dest_key     TEXT NOT NULL,
	target_language TEXT NOT NULL,
	translate_style TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	progress        DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_files     INTEGER NOT NULL DEFAULT 0,
	processed_files INTEGER NOT NULL DEFAULT 0,
	error_message   TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS translation_tasks_created_at
	ON translation_tasks (created_at DESC);
`

const taskColumns = `task_id, s3_source_url, s3_dest_bucket, s3_dest_key,
	target_language, translate_style, status, progress, total_files,
	processed_files, error_message, created_at, updated_at, completed_at`

// connection parameters for the task database
type PGOptions struct {
	// a postgres:// connection URL
	URL string
	// maximum size of the connection pool
	MaxConnections int
}

// PGStore is a Store backed by a PostgreSQL connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to the task database and ensures its schema exists.
func NewPGStore(ctx context.Context, options PGOptions) (*PGStore, error) {
	poolConfig, err := pgxpool.ParseConfig(options.URL)
	if err != nil {
		return nil, err
	}
	if options.MaxConnections > 0 {
		poolConfig.MaxConns = int32(options.MaxConnections)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	store := &PGStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (store *PGStore) ensureSchema(ctx context.Context) error {
	_, err := store.pool.Exec(ctx, schema)
	return err
}

func (store *PGStore) Create(ctx context.Context, task Task) error {
	_, err := store.pool.Exec(ctx, `
		INSERT INTO translation_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (task_id) DO NOTHING`,
		task.Id, task.SourceURL, task.DestBucket, task.DestKey,
		task.TargetLanguage, task.TranslateStyle, string(task.Status),
		task.Progress, task.TotalFiles, task.ProcessedFiles,
		nullableText(task.ErrorMessage), task.CreatedAt, task.UpdatedAt,
		task.CompletedAt)
	return err
}

func (store *PGStore) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	row := store.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM translation_tasks WHERE task_id = $1`, id)
	return scanTask(row, id)
}

func (store *PGStore) List(ctx context.Context, limit, offset int) ([]Task, error) {
	rows, err := store.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM translation_tasks
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows, uuid.Nil)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	return list, rows.Err()
}

func (store *PGStore) Update(ctx context.Context, id uuid.UUID, update Update) (Task, error) {
	var task Task
	err := pgx.BeginFunc(ctx, store.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+taskColumns+` FROM translation_tasks
			WHERE task_id = $1 FOR UPDATE`, id)
		var err error
		task, err = scanTask(row, id)
		if err != nil {
			return err
		}
		if err := task.Apply(update, time.Now().UTC()); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE translation_tasks SET
				status = $2, progress = $3, total_files = $4,
				processed_files = $5, error_message = $6,
				updated_at = $7, completed_at = $8
			WHERE task_id = $1`,
			task.Id, string(task.Status), task.Progress, task.TotalFiles,
			task.ProcessedFiles, nullableText(task.ErrorMessage),
			task.UpdatedAt, task.CompletedAt)
		return err
	})
	if err != nil {
		return Task{}, err
	}
	return task, nil
}

func (store *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := store.pool.Exec(ctx,
		`DELETE FROM translation_tasks WHERE task_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Id: id}
	}
	return nil
}

func (store *PGStore) Close() {
	store.pool.Close()
}

func scanTask(row pgx.Row, id uuid.UUID) (Task, error) {
	var task Task
	var status string
	var errorMessage *string
	err := row.Scan(&task.Id, &task.SourceURL, &task.DestBucket, &task.DestKey,
		&task.TargetLanguage, &task.TranslateStyle, &status, &task.Progress,
		&task.TotalFiles, &task.ProcessedFiles, &errorMessage,
		&task.CreatedAt, &task.UpdatedAt, &task.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, &NotFoundError{Id: id}
	}
	if err != nil {
		return Task{}, err
	}
	task.Status = Status(status)
	if errorMessage != nil {
		task.ErrorMessage = *errorMessage
	}
	return task, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
