package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ricorrenze/internal/core"
)

// ModificationRepository is the modification view of a SQLiteRepository.
type ModificationRepository struct {
	r *SQLiteRepository
}

func (r *SQLiteRepository) Modifications() *ModificationRepository {
	return &ModificationRepository{r: r}
}

const modificationColumns = `id, scheduled_transaction_id, occurrence_index, original_date, state,
	date, origin_splits, destination_splits`

func (m *ModificationRepository) FindByTemplateID(ctx context.Context, templateID string) ([]core.RecurrenceModification, error) {
	rows, err := m.r.db.QueryContext(ctx, `SELECT `+modificationColumns+`
		FROM recurrence_modifications
		WHERE scheduled_transaction_id = ?
		ORDER BY occurrence_index`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list modifications of %s: %w", templateID, err)
	}
	defer rows.Close()

	var out []core.RecurrenceModification
	for rows.Next() {
		mod, err := scanModification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan modification: %w", err)
		}
		out = append(out, mod)
	}
	return out, rows.Err()
}

// FindByTemplateIDAndIndex returns nil without error when no record exists.
func (m *ModificationRepository) FindByTemplateIDAndIndex(ctx context.Context, templateID string, index int) (*core.RecurrenceModification, error) {
	row := m.r.db.QueryRowContext(ctx, `SELECT `+modificationColumns+`
		FROM recurrence_modifications
		WHERE scheduled_transaction_id = ? AND occurrence_index = ?`, templateID, index)
	mod, err := scanModification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get modification %s#%d: %w", templateID, index, err)
	}
	return &mod, nil
}

// Persist upserts on (scheduled_transaction_id, occurrence_index), so a
// second writer racing on the same occurrence updates the existing row.
func (m *ModificationRepository) Persist(ctx context.Context, mod core.RecurrenceModification) error {
	var date sql.NullString
	if mod.Date != nil {
		date = sql.NullString{String: mod.Date.String(), Valid: true}
	}
	origin, err := nullableSplits(mod.OriginSplits)
	if err != nil {
		return err
	}
	destination, err := nullableSplits(mod.DestinationSplits)
	if err != nil {
		return err
	}

	_, err = m.r.db.ExecContext(ctx, `
		INSERT INTO recurrence_modifications (`+modificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scheduled_transaction_id, occurrence_index) DO UPDATE SET
			state = excluded.state,
			date = excluded.date,
			origin_splits = excluded.origin_splits,
			destination_splits = excluded.destination_splits,
			updated_at = CURRENT_TIMESTAMP`,
		mod.ID, mod.ScheduledTransactionID, mod.OccurrenceIndex, mod.OriginalDate.String(), string(mod.State),
		date, origin, destination)
	if err != nil {
		return fmt.Errorf("save modification %s#%d: %w", mod.ScheduledTransactionID, mod.OccurrenceIndex, err)
	}
	return nil
}

func (m *ModificationRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := m.r.db.ExecContext(ctx, `DELETE FROM recurrence_modifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete modification %s: %w", id, err)
	}
	return nil
}

func (m *ModificationRepository) DeleteByTemplateID(ctx context.Context, templateID string) error {
	if _, err := m.r.db.ExecContext(ctx, `DELETE FROM recurrence_modifications WHERE scheduled_transaction_id = ?`, templateID); err != nil {
		return fmt.Errorf("delete modifications of %s: %w", templateID, err)
	}
	return nil
}

func scanModification(s scanner) (core.RecurrenceModification, error) {
	var (
		mod                 core.RecurrenceModification
		originalDate, state string
		date                sql.NullString
		origin, destination sql.NullString
	)
	err := s.Scan(&mod.ID, &mod.ScheduledTransactionID, &mod.OccurrenceIndex, &originalDate, &state,
		&date, &origin, &destination)
	if err != nil {
		return core.RecurrenceModification{}, err
	}
	if mod.OriginalDate, err = core.ParseDate(originalDate); err != nil {
		return core.RecurrenceModification{}, fmt.Errorf("original date: %w", err)
	}
	mod.State = core.ModificationState(state)
	if date.Valid {
		d, err := core.ParseDate(date.String)
		if err != nil {
			return core.RecurrenceModification{}, fmt.Errorf("date: %w", err)
		}
		mod.Date = &d
	}
	if origin.Valid {
		if mod.OriginSplits, err = decodeSplits(origin.String); err != nil {
			return core.RecurrenceModification{}, err
		}
	}
	if destination.Valid {
		if mod.DestinationSplits, err = decodeSplits(destination.String); err != nil {
			return core.RecurrenceModification{}, err
		}
	}
	return mod, nil
}

func nullableSplits(splits []core.Split) (sql.NullString, error) {
	if len(splits) == 0 {
		return sql.NullString{}, nil
	}
	s, err := encodeSplits(splits)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}
