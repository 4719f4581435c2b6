package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store/postgres"
)

// SQL statements kept as constants for clarity and reuse
const (
	selectReadyRowsSQL = `
SELECT id, op, payload, aggregate_id
FROM outbox
WHERE status = 'pending' AND next_attempt_at <= now()
ORDER BY id ASC
FOR UPDATE SKIP LOCKED
LIMIT $1`

	markDoneSQL = `UPDATE outbox SET status='done', update_time=now() WHERE id=$1`

	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300)),
    update_time = now()
WHERE id=$1`

	pendingCountSQL = `SELECT count(*) FROM outbox WHERE status = 'pending'`
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize int           // number of rows to lease per cycle
	Interval  time.Duration // poll interval
}

// Worker applies content changes recorded in the outbox to the search index.
type Worker struct {
	db    *sql.DB
	log   zerolog.Logger
	index searchindex.Index
	cfg   Config
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(db *sql.DB, idx searchindex.Index, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Worker{db: db, log: log.With().Str("component", "outbox").Logger(), index: idx, cfg: cfg}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				// Log and continue; per-row backoff prevents hot-looping
				w.log.Error().Err(err).Msg("outbox processOnce")
			}
			if _, err := w.Pending(ctx); err != nil {
				w.log.Debug().Err(err).Msg("outbox pending count")
			}
		}
	}
}

type job struct {
	id          int64
	op          string
	aggregateID string
	payload     json.RawMessage
}

// ProcessOnce leases one batch, applies it and reports how many rows succeeded.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := w.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	jobs, err := w.leaseBatch(ctx, tx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, tx.Commit()
	}

	done := 0
	for _, j := range jobs {
		if err := w.handle(ctx, j); err != nil {
			rowsTotal.WithLabelValues(j.op, "failed").Inc()
			w.log.Warn().Err(err).Int64("id", j.id).Str("op", j.op).Str("aggregate_id", j.aggregateID).Msg("outbox row failed")
			if e := w.markFailed(ctx, tx, j.id); e != nil {
				w.log.Error().Err(e).Int64("id", j.id).Msg("markFailed error")
			}
			continue
		}
		if e := w.markDone(ctx, tx, j.id); e != nil {
			w.log.Error().Err(e).Int64("id", j.id).Msg("markDone error")
			continue
		}
		rowsTotal.WithLabelValues(j.op, "done").Inc()
		done++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return done, nil
}

// Pending returns the number of rows still waiting to be applied.
func (w *Worker) Pending(ctx context.Context) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, pendingCountSQL).Scan(&n); err != nil {
		return 0, err
	}
	pendingRows.Set(float64(n))
	return n, nil
}

// leaseBatch locks and returns up to batchSize ready outbox rows.
func (w *Worker) leaseBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]job, error) {
	rows, err := tx.QueryContext(ctx, selectReadyRowsSQL, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []job
	for rows.Next() {
		var j job
		var raw []byte
		if err := rows.Scan(&j.id, &j.op, &raw, &j.aggregateID); err != nil {
			return nil, err
		}
		j.payload = append(json.RawMessage(nil), raw...)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// handle executes the outbox operation. Both operations are idempotent.
func (w *Worker) handle(ctx context.Context, j job) error {
	switch j.op {
	case postgres.OpUpsertContent:
		var c model.Content
		if err := json.Unmarshal(j.payload, &c); err != nil {
			// Poison pill: fail so it backs off and won't hot-loop
			return fmt.Errorf("bad payload: %w", err)
		}
		if c.ContentID == "" {
			c.ContentID = j.aggregateID
		}
		return w.index.IndexDocument(ctx, searchindex.DocumentFromContent(&c))
	case postgres.OpDeleteContent:
		if j.aggregateID == "" {
			return errors.New("delete without aggregate id")
		}
		return w.index.DeleteDocument(ctx, j.aggregateID)
	default:
		return fmt.Errorf("unknown op: %s", j.op)
	}
}

func (w *Worker) markDone(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (w *Worker) markFailed(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markFailedSQL, id)
	return err
}
