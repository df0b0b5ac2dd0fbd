// Package outbox persists events in the same database transaction as the
// state change that produced them; a relay publishes pending rows to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	segkafka "github.com/segmentio/kafka-go"

	"github.com/nazeru/storefront-api/pkg/kafka"
	"github.com/nazeru/storefront-api/pkg/logging"
)

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// InsertTx queues an event inside the caller's transaction so the event and
// the state change commit or roll back together.
func InsertTx(ctx context.Context, tx pgx.Tx, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox(event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`, eventID, topic, key, data)
	return err
}

func FetchPending(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Record, error) {
	rows, err := pool.Query(ctx, `SELECT id, event_id, topic, key, payload, created_at, sent_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

// Relay polls pending outbox rows and publishes them in order. A failed
// publish leaves the row unsent; it is retried on the next tick.
type Relay struct {
	Pool      *pgxpool.Pool
	Writer    *segkafka.Writer
	Interval  time.Duration
	BatchSize int
	Service   string
}

func (r *Relay) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pending, err := FetchPending(ctx, r.Pool, batch)
		if err != nil {
			logging.Log(logging.Fields{Service: r.Service, Step: "outbox_fetch", Status: "error", Message: err.Error()})
			continue
		}
		for _, rec := range pending {
			if err := kafka.PublishJSON(ctx, r.Writer, rec.Key, json.RawMessage(rec.Payload)); err != nil {
				logging.Log(logging.Fields{Service: r.Service, EventID: rec.EventID, Step: "outbox_publish", Status: "error", Message: err.Error()})
				break
			}
			if err := MarkSent(ctx, r.Pool, rec.ID); err != nil {
				logging.Log(logging.Fields{Service: r.Service, EventID: rec.EventID, Step: "outbox_mark_sent", Status: "error", Message: err.Error()})
				break
			}
			logging.Log(logging.Fields{Service: r.Service, EventID: rec.EventID, Step: "outbox_publish", Status: "sent"})
		}
	}
}
