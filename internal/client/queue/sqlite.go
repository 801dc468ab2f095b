package queue

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/dbx"
)

// SQLiteQueue implements Queue over a DBTX.
type SQLiteQueue struct {
	db           dbx.DBTX
	retryCeiling int
}

// NewSQLiteQueue returns a queue bound to db. retryCeiling <= 0 selects
// DefaultRetryCeiling.
func NewSQLiteQueue(db dbx.DBTX, retryCeiling int) *SQLiteQueue {
	if retryCeiling <= 0 {
		retryCeiling = DefaultRetryCeiling
	}
	return &SQLiteQueue{db: db, retryCeiling: retryCeiling}
}

func (q *SQLiteQueue) Enqueue(ctx context.Context, m models.Mutation) error {
	query := `INSERT INTO mutation_queue
			(offline_id, entity_type, operation, payload, client_created_at, retry_count, last_error, terminal)
		VALUES (?, ?, ?, ?, ?, 0, '', 0)
		ON CONFLICT(offline_id) DO UPDATE SET
			payload = excluded.payload,
			operation = CASE WHEN mutation_queue.operation = 'CREATE'
				THEN 'CREATE' ELSE excluded.operation END,
			retry_count = 0,
			last_error = '',
			terminal = 0`
	_, err := q.db.ExecContext(ctx, query,
		m.OfflineID, string(m.EntityType), string(m.Operation), m.Payload, m.ClientCreatedAt)
	if err != nil {
		return common.NewStorageError("enqueue mutation", err)
	}
	return nil
}

func (q *SQLiteQueue) DequeueConfirmed(ctx context.Context, offlineID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM mutation_queue WHERE offline_id = ?`, offlineID)
	if err != nil {
		return common.NewStorageError("dequeue mutation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (q *SQLiteQueue) ListPending(ctx context.Context) ([]models.Mutation, error) {
	return q.list(ctx, `SELECT offline_id, entity_type, operation, payload, client_created_at, retry_count, last_error, terminal
		FROM mutation_queue WHERE terminal = 0
		ORDER BY client_created_at ASC, offline_id ASC`)
}

func (q *SQLiteQueue) ListFailed(ctx context.Context) ([]models.Mutation, error) {
	return q.list(ctx, `SELECT offline_id, entity_type, operation, payload, client_created_at, retry_count, last_error, terminal
		FROM mutation_queue WHERE terminal = 1
		ORDER BY client_created_at ASC, offline_id ASC`)
}

func (q *SQLiteQueue) list(ctx context.Context, query string) ([]models.Mutation, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.NewStorageError("list mutations", err)
	}
	defer rows.Close()

	var result []models.Mutation
	for rows.Next() {
		var m models.Mutation
		var entityType, operation string
		var terminal int
		if err := rows.Scan(&m.OfflineID, &entityType, &operation, &m.Payload,
			&m.ClientCreatedAt, &m.RetryCount, &m.LastError, &terminal); err != nil {
			return nil, common.NewStorageError("scan mutation", err)
		}
		m.EntityType = models.EntityType(entityType)
		m.Operation = models.Operation(operation)
		m.Terminal = terminal != 0
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("iterate mutations", err)
	}
	return result, nil
}

func (q *SQLiteQueue) IncrementRetry(ctx context.Context, offlineID string, lastError string) error {
	query := `UPDATE mutation_queue SET
			retry_count = retry_count + 1,
			last_error = ?,
			terminal = CASE WHEN retry_count + 1 >= ? THEN 1 ELSE 0 END
		WHERE offline_id = ?`
	res, err := q.db.ExecContext(ctx, query, lastError, q.retryCeiling, offlineID)
	if err != nil {
		return common.NewStorageError("increment retry", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (q *SQLiteQueue) Retry(ctx context.Context, offlineID string) error {
	query := `UPDATE mutation_queue SET retry_count = 0, last_error = '', terminal = 0
		WHERE offline_id = ? AND terminal = 1`
	res, err := q.db.ExecContext(ctx, query, offlineID)
	if err != nil {
		return common.NewStorageError("retry mutation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (q *SQLiteQueue) PendingCount(ctx context.Context) (int, error) {
	return q.count(ctx, 0)
}

func (q *SQLiteQueue) FailedCount(ctx context.Context) (int, error) {
	return q.count(ctx, 1)
}

func (q *SQLiteQueue) count(ctx context.Context, terminal int) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mutation_queue WHERE terminal = ?`, terminal).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, common.NewStorageError("count mutations", err)
	}
	return n, nil
}
