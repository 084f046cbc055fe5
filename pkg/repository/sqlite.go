package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recollect-dev/recollect/pkg/model"

	_ "modernc.org/sqlite"
)

// sqliteRepo implements Repository backed by a local SQLite database.
// This is the default store: a single file, no external service.
type sqliteRepo struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the SQLite database at path and runs the
// schema migration. The parent directory is created if needed.
func NewSQLite(path string) (Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, goerr.Wrap(err, "failed to apply pragma", goerr.V("pragma", p))
		}
	}

	r := &sqliteRepo{db: db}
	if err := r.migrate(); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate sqlite schema")
	}

	return r, nil
}

func (r *sqliteRepo) migrate() error {
	// seq carries insertion order; id stays a TEXT primary key so the
	// coordinator controls id generation.
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			user_id    TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			deleted    INTEGER NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_memories_user    ON memories(user_id);
		CREATE INDEX IF NOT EXISTS idx_memories_deleted ON memories(user_id, deleted);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (r *sqliteRepo) Insert(ctx context.Context, mem *model.Memory) error {
	createdAt := mem.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, content, deleted, created_at) VALUES (?, ?, ?, 0, ?)`,
		string(mem.ID), mem.UserID, mem.Content, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(model.ErrDuplicateID, "insert collided", goerr.V("memory_id", mem.ID))
		}
		return goerr.Wrap(err, "failed to insert memory", goerr.V("memory_id", mem.ID))
	}

	mem.CreatedAt = createdAt
	if seq, err := res.LastInsertId(); err == nil {
		mem.Seq = seq
	}
	return nil
}

func (r *sqliteRepo) MarkDeleted(ctx context.Context, id model.MemoryID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE memories SET deleted = 1 WHERE id = ?`, string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to mark memory deleted", goerr.V("memory_id", id))
	}

	// SQLite counts a row as changed even when deleted was already 1, so
	// zero affected rows means the id does not exist.
	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return goerr.Wrap(model.ErrMemoryNotFound, "cannot delete unknown memory", goerr.V("memory_id", id))
	}
	return nil
}

func (r *sqliteRepo) ActiveIDs(ctx context.Context, userID string) ([]model.MemoryID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM memories WHERE user_id = ? AND deleted = 0 ORDER BY seq ASC`,
		userID,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query active ids", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var ids []model.MemoryID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory id")
		}
		ids = append(ids, model.MemoryID(id))
	}
	return ids, rows.Err()
}

func (r *sqliteRepo) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT seq, id, user_id, content, deleted, created_at FROM memories WHERE id = ?`,
		string(id),
	)

	mem, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("memory_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}
	return mem, nil
}

func (r *sqliteRepo) Exists(ctx context.Context, id model.MemoryID) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM memories WHERE id = ?`, string(id),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to check memory existence", goerr.V("memory_id", id))
	}
	return true, nil
}

func (r *sqliteRepo) ListByUser(ctx context.Context, userID string, includeDeleted bool, limit int) ([]*model.Memory, error) {
	query := `SELECT seq, id, user_id, content, deleted, created_at FROM memories WHERE user_id = ?`
	args := []any{userID}

	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY seq ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var memories []*model.Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory row")
		}
		memories = append(memories, mem)
	}
	return memories, rows.Err()
}

func (r *sqliteRepo) Stats(ctx context.Context, userID string) (*model.MemoryStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN deleted = 0 THEN 1 END),
		       COUNT(CASE WHEN deleted = 1 THEN 1 END),
		       MIN(created_at),
		       MAX(created_at)
		FROM memories WHERE user_id = ?`,
		userID,
	)

	var stats model.MemoryStats
	var first, last sql.NullString
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Deleted, &first, &last); err != nil {
		return nil, goerr.Wrap(err, "failed to query stats", goerr.V("user_id", userID))
	}

	if first.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, first.String); err == nil {
			stats.First = &ts
		}
	}
	if last.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			stats.Last = &ts
		}
	}
	return &stats, nil
}

func (r *sqliteRepo) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var mem model.Memory
	var id, createdAt string
	var deleted int

	if err := row.Scan(&mem.Seq, &id, &mem.UserID, &mem.Content, &deleted, &createdAt); err != nil {
		return nil, err
	}

	mem.ID = model.MemoryID(id)
	mem.Deleted = deleted != 0
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		mem.CreatedAt = ts
	}
	return &mem, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
