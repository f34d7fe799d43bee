package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore keeps each collection in its own table, one row per
// record. Replace and Remove lock the target row, so concurrent edits of
// the same record serialise instead of overwriting each other.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func table(c Collection) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("unknown collection %q", c)
	}
	return pq.QuoteIdentifier(string(c)), nil
}

// EnsureSchema creates the collection tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, c := range Collections {
		t, _ := table(c)
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
			  position BIGSERIAL PRIMARY KEY,
			  id       TEXT  NOT NULL,
			  body     JSONB NOT NULL
			)`, t))
		if err != nil {
			return fmt.Errorf("create table %s: %w", c, err)
		}
		_, err = s.db.ExecContext(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s (id)`, pq.QuoteIdentifier(string(c)+"_id_idx"), t))
		if err != nil {
			return fmt.Errorf("create index %s: %w", c, err)
		}
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, c Collection) ([]Record, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM `+t+` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		rec := Record{}
		if err := unmarshalNumbers(body, &rec); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", c, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Add(ctx context.Context, c Collection, rec Record) error {
	t, err := table(c)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+t+` (id, body) VALUES ($1, $2)`, rec.ID(), string(body))
	return err
}

func (s *PostgresStore) Replace(ctx context.Context, c Collection, rec Record) (Record, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	var old Record
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		pos, prev, err := lockFirst(ctx, tx, t, rec.ID())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE `+t+` SET body=$1 WHERE position=$2`, string(body), pos); err != nil {
			return err
		}
		old = prev
		return nil
	})
	return old, err
}

func (s *PostgresStore) Remove(ctx context.Context, c Collection, id string) (Record, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}

	var old Record
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		pos, prev, err := lockFirst(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t+` WHERE position=$1`, pos); err != nil {
			return err
		}
		old = prev
		return nil
	})
	return old, err
}

// lockFirst selects and row-locks the oldest record with id.
func lockFirst(ctx context.Context, tx *sql.Tx, t, id string) (int64, Record, error) {
	var (
		pos  int64
		body []byte
	)
	err := tx.QueryRowContext(ctx,
		`SELECT position, body FROM `+t+` WHERE id=$1 ORDER BY position LIMIT 1 FOR UPDATE`, id,
	).Scan(&pos, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, ErrNotFound
	}
	if err != nil {
		return 0, nil, err
	}
	rec := Record{}
	if err := unmarshalNumbers(body, &rec); err != nil {
		return 0, nil, err
	}
	return pos, rec, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
