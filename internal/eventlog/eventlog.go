// Package eventlog appends progression events to the event_log table for
// audit. Best effort: a failed append never blocks the operation that
// produced the event.
package eventlog

import (
	"context"
	"database/sql"
	"time"
)

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, learnerID, kind, dataJSON string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (learner_id, typ, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		learnerID, kind, dataJSON, time.Now().Unix())
	return err
}
