package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/relaygate/relaygate/internal/domain"
	"github.com/relaygate/relaygate/internal/pkg/database"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         BIGSERIAL PRIMARY KEY,
	target     TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS records_target_idx ON records (target, id);
`

// RecordRepository stores records of every target in a single JSONB table.
// The id column is authoritative; data never stores it.
type RecordRepository struct {
	db *database.PostgresDB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.PostgresDB) *RecordRepository {
	return &RecordRepository{db: db}
}

// EnsureSchema creates the records table if it does not exist
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create records schema: %w", err)
		}
		return nil
	})
}

// Insert creates a record and returns it with its assigned id
func (r *RecordRepository) Insert(ctx context.Context, target string, data map[string]any) (*domain.Record, error) {
	payload, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	var id int64
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO records (target, data) VALUES ($1, $2::jsonb) RETURNING id`,
		target, payload,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	return &domain.Record{ID: id, Data: withID(data, id)}, nil
}

// Update merges data into every record of target matching filter
func (r *RecordRepository) Update(ctx context.Context, target string, filter domain.Filter, data map[string]any) (int64, error) {
	payload, err := encodeData(data)
	if err != nil {
		return 0, err
	}

	where, args, err := buildWhere(target, filter, 2)
	if err != nil {
		return 0, err
	}

	query := `UPDATE records SET data = data || $1::jsonb, updated_at = now() WHERE ` + where
	tag, err := r.db.Pool.Exec(ctx, query, append([]any{payload}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to update records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes every record of target matching filter
func (r *RecordRepository) Delete(ctx context.Context, target string, filter domain.Filter) (int64, error) {
	where, args, err := buildWhere(target, filter, 1)
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM records WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns every record of target ordered by id
func (r *RecordRepository) List(ctx context.Context, target string) ([]domain.Record, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, data FROM records WHERE target = $1 ORDER BY id`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// Get returns one record or a NotFound error
func (r *RecordRepository) Get(ctx context.Context, target string, id any) (*domain.Record, error) {
	key, ok := domain.ParseRecordID(id)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("%s/%v", target, id))
	}

	row := r.db.Pool.QueryRow(ctx, `SELECT id, data FROM records WHERE target = $1 AND id = $2`, target, key)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("%s/%v", target, id))
		}
		return nil, err
	}
	return rec, nil
}

// Ping checks the database is reachable
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		id  int64
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	return &domain.Record{ID: id, Data: withID(data, id)}, nil
}

// encodeData marshals data for the JSONB column without the id field
func encodeData(data map[string]any) ([]byte, error) {
	stored := maps.Clone(data)
	if stored == nil {
		stored = map[string]any{}
	}
	delete(stored, domain.IDField)

	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, apperrors.InvalidArgument("record data is not serialisable").WithError(err)
	}
	return payload, nil
}

// buildWhere renders a filter as SQL. The id field matches the id column and
// all other fields match by JSONB containment. Placeholders start at $first.
func buildWhere(target string, filter domain.Filter, first int) (string, []any, error) {
	clauses := []string{fmt.Sprintf("target = $%d", first)}
	args := []any{target}

	rest := make(map[string]any, len(filter))
	for k, v := range filter {
		if k != domain.IDField {
			rest[k] = v
			continue
		}
		id, ok := domain.ParseRecordID(v)
		if !ok {
			return "", nil, apperrors.InvalidArgument(fmt.Sprintf("invalid record id: %v", v))
		}
		args = append(args, id)
		clauses = append(clauses, fmt.Sprintf("id = $%d", first+len(args)-1))
	}

	if len(rest) > 0 {
		payload, err := json.Marshal(rest)
		if err != nil {
			return "", nil, apperrors.InvalidArgument("filter is not serialisable").WithError(err)
		}
		args = append(args, payload)
		clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", first+len(args)-1))
	}

	return strings.Join(clauses, " AND "), args, nil
}

func withID(data map[string]any, id int64) map[string]any {
	out := maps.Clone(data)
	if out == nil {
		out = make(map[string]any)
	}
	out[domain.IDField] = id
	return out
}
