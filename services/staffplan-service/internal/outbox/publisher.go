package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/libs/kafkax"
	otelx "github.com/md-rashed-zaman/staffplan/libs/otel"
	"github.com/segmentio/kafka-go"
)

type store interface {
	FetchUnpublished(ctx context.Context, q db.DBTX, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, q db.DBTX, ids []int64) error
	PurgePublished(ctx context.Context, q db.DBTX, cutoff time.Time) (int64, error)
}

// Publisher relays committed outbox rows to Kafka. Rows are marked published
// in the same transaction that locked them, so a crash re-sends rather than
// drops.
type Publisher struct {
	tx         db.Transactor
	repo       store
	writer     kafkax.MessageWriter
	logger     *slog.Logger
	pollEvery  time.Duration
	batchSize  int
	retention  time.Duration
	purgeEvery time.Duration
	now        func() time.Time
}

// PublisherConfig tunes the relay. Published rows older than Retention are
// deleted once per PurgeEvery.
type PublisherConfig struct {
	PollEvery  time.Duration
	BatchSize  int
	Retention  time.Duration
	PurgeEvery time.Duration
}

func NewPublisher(tx db.Transactor, repo store, writer kafkax.MessageWriter, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.PurgeEvery <= 0 {
		cfg.PurgeEvery = time.Hour
	}
	return &Publisher{
		tx:         tx,
		repo:       repo,
		writer:     writer,
		logger:     logger,
		pollEvery:  cfg.PollEvery,
		batchSize:  cfg.BatchSize,
		retention:  cfg.Retention,
		purgeEvery: cfg.PurgeEvery,
		now:        time.Now,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	defer p.writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()
	purge := time.NewTicker(p.purgeEvery)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		case <-purge.C:
			n, err := p.Purge(ctx)
			if err != nil {
				p.logger.Warn("outbox purge failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Info("outbox purged", "count", n)
			}
		}
	}
}

// PublishBatch sends at most one batch and returns how many events went out.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	published := 0
	err := p.tx.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, message(ctx, r))
			ids = append(ids, r.ID)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	return published, err
}

// Purge drops published events older than the retention window.
func (p *Publisher) Purge(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	var n int64
	err := p.tx.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		n, err = p.repo.PurgePublished(ctx, tx, cutoff)
		return err
	})
	return n, err
}

func message(ctx context.Context, r Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
	msg := kafka.Message{
		Topic: r.EventType,
		Key:   []byte(r.AggregateID),
		Value: r.Payload,
		Headers: []kafka.Header{
			{Key: kafkax.HeaderEventID, Value: []byte(r.EventID)},
			{Key: kafkax.HeaderEventType, Value: []byte(r.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}
