package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore keeps one JSON snapshot row per learner. Works against the
// sqlite and postgres schemas from internal/db.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, learnerID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE learner_id=$1`, learnerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *SQLStore) Save(ctx context.Context, learnerID string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (learner_id, data, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (learner_id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		learnerID, string(data), time.Now().Unix())
	return err
}

func (s *SQLStore) Learners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT learner_id FROM snapshots ORDER BY learner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, learnerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE learner_id=$1`, learnerID)
	return err
}
