package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ricorrenze/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores templates and their modifications. It implements
// both services.ScheduledTransactionRepository and
// services.RecurrenceModificationRepository.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const templateColumns = `id, name, category_id, subcategory_id, store, operation, amount_cents,
	origin_splits, destination_splits, recurrence_type, start_date, frequency, end_date, max_occurrences`

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*core.ScheduledTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM scheduled_transactions WHERE id = ?`, id)
	st, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrTemplateNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduled transaction %s: %w", id, err)
	}
	return &st, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context) ([]core.ScheduledTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM scheduled_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled transactions: %w", err)
	}
	defer rows.Close()

	var out []core.ScheduledTransaction
	for rows.Next() {
		st, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Persist(ctx context.Context, st core.ScheduledTransaction) error {
	origin, err := encodeSplits(st.OriginSplits)
	if err != nil {
		return err
	}
	destination, err := encodeSplits(st.DestinationSplits)
	if err != nil {
		return err
	}
	frequency, endDate, limit := st.Recurrence.Encode()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scheduled_transactions (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category_id = excluded.category_id,
			subcategory_id = excluded.subcategory_id,
			store = excluded.store,
			operation = excluded.operation,
			amount_cents = excluded.amount_cents,
			origin_splits = excluded.origin_splits,
			destination_splits = excluded.destination_splits,
			recurrence_type = excluded.recurrence_type,
			start_date = excluded.start_date,
			frequency = excluded.frequency,
			end_date = excluded.end_date,
			max_occurrences = excluded.max_occurrences,
			updated_at = CURRENT_TIMESTAMP`,
		st.ID, st.Name, st.CategoryID, st.SubcategoryID, st.Store, string(st.Operation), st.Amount.Cents,
		origin, destination, string(st.Recurrence.Type), st.Recurrence.StartDate.String(), frequency, endDate, limit)
	if err != nil {
		return fmt.Errorf("save scheduled transaction %s: %w", st.ID, err)
	}

	slog.InfoContext(ctx, "Scheduled transaction saved to SQLite", "template_id", st.ID, "name", st.Name)
	return nil
}

// DeleteByID removes a template. Its modifications go with it through the
// foreign key cascade.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete scheduled transaction %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (core.ScheduledTransaction, error) {
	var (
		st                    core.ScheduledTransaction
		operation, typ, start string
		frequency, endDate    string
		origin, destination   string
		limit                 int
	)
	err := s.Scan(&st.ID, &st.Name, &st.CategoryID, &st.SubcategoryID, &st.Store, &operation, &st.Amount.Cents,
		&origin, &destination, &typ, &start, &frequency, &endDate, &limit)
	if err != nil {
		return core.ScheduledTransaction{}, err
	}
	st.Operation = core.Operation(operation)
	if st.OriginSplits, err = decodeSplits(origin); err != nil {
		return core.ScheduledTransaction{}, err
	}
	if st.DestinationSplits, err = decodeSplits(destination); err != nil {
		return core.ScheduledTransaction{}, err
	}
	if st.Recurrence, err = core.DecodePattern(typ, start, frequency, endDate, limit); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("decode recurrence of %s: %w", st.ID, err)
	}
	return st, nil
}

func encodeSplits(splits []core.Split) (string, error) {
	if splits == nil {
		return "[]", nil
	}
	b, err := json.Marshal(splits)
	if err != nil {
		return "", fmt.Errorf("encode splits: %w", err)
	}
	return string(b), nil
}

func decodeSplits(raw string) ([]core.Split, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var splits []core.Split
	if err := json.Unmarshal([]byte(raw), &splits); err != nil {
		return nil, fmt.Errorf("decode splits: %w", err)
	}
	return splits, nil
}
