// Package storage is the durable SQLite transaction store.
//
// Amounts are stored as decimal text and occurred_at as unix seconds; List
// hands both back raw and leaves typing to core.Normalize.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/live"
	"tracker/internal/store"

	_ "modernc.org/sqlite"
)

const table = "transactions"

var columns = []string{"id", "owner_id", "title", "amount", "occurred_at", "category", "description", "created_at"}

type SQLiteRepository struct {
	*live.Hub

	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, now: time.Now}
	repo.Hub = live.New(repo.List, slog.Default().With("component", "sqlite-store"))
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	r.Hub.Close()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements store.Writer.
func (r *SQLiteRepository) Create(ctx context.Context, nt core.NewTransaction) (string, error) {
	if err := nt.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	query, args, err := squirrel.Insert(table).
		Columns(columns...).
		Values(
			id,
			nt.OwnerID,
			strings.TrimSpace(nt.Title),
			decimal.NewFromFloat(nt.Amount).String(),
			nt.OccurredAt.Unix(),
			strings.TrimSpace(nt.Category),
			nt.Description,
			r.now().UnixNano(),
		).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"owner_id", nt.OwnerID,
		"amount", nt.Amount,
		"occurred_at", nt.OccurredAt.Format("2006-01-02"))

	r.Changed(nt.OwnerID)
	return id, nil
}

// Delete implements store.Writer.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	query, args, err := squirrel.Delete(table).
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	r.Changed(ownerID)
	return nil
}

// List implements store.Lister.
func (r *SQLiteRepository) List(ctx context.Context, q store.Query) ([]core.Record, error) {
	query, args, err := squirrel.Select(columns...).
		From(table).
		Where(squirrel.Eq{"owner_id": q.OwnerID}).
		Where(squirrel.GtOrEq{"occurred_at": q.From.Unix()}).
		Where(squirrel.Lt{"occurred_at": q.To.Unix()}).
		OrderBy("occurred_at DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Record, 0)
	for rows.Next() {
		var (
			id, owner, title, amount, category, description string
			occurredAt, createdAt                           int64
		)
		if err := rows.Scan(&id, &owner, &title, &amount, &occurredAt, &category, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, core.Record{
			ID: id,
			Fields: map[string]any{
				core.FieldOwnerID:     owner,
				core.FieldTitle:       title,
				core.FieldAmount:      amount,
				core.FieldOccurredAt:  occurredAt,
				core.FieldCategory:    category,
				core.FieldDescription: description,
				core.FieldCreatedAt:   time.Unix(0, createdAt),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Owners implements store.Lister.
func (r *SQLiteRepository) Owners(ctx context.Context, from, to time.Time) ([]string, error) {
	query, args, err := squirrel.Select("owner_id").
		Distinct().
		From(table).
		Where(squirrel.GtOrEq{"occurred_at": from.Unix()}).
		Where(squirrel.Lt{"occurred_at": to.Unix()}).
		OrderBy("owner_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select owners: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}
