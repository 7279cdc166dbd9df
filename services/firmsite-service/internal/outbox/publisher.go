package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/libs/kafkax"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// txRunner is satisfied by *db.Pool.
type txRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// eventStore is satisfied by *Repository.
type eventStore interface {
	FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error
	PurgePublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Publisher struct {
	pool      txRunner
	repo      eventStore
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	retention time.Duration
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// Retention is how long published rows are kept before they are purged.
	Retention time.Duration
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		retention: cfg.Retention,
	}
}

func (p *Publisher) Enabled() bool {
	return len(p.brokers) > 0
}

func (p *Publisher) Run(ctx context.Context) {
	if !p.Enabled() {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()
	p.loop(ctx, writer, time.Hour)
}

// loop publishes a batch every poll interval and purges old rows every purgeEvery until ctx
// is done.
func (p *Publisher) loop(ctx context.Context, writer messageWriter, purgeEvery time.Duration) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()
	purge := time.NewTicker(purgeEvery)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			} else if n > 0 {
				p.logger.Debug("outbox events published", "count", n)
			}
		case <-purge.C:
			if n, err := p.repo.PurgePublished(ctx, p.retention); err != nil {
				p.logger.Error("outbox purge failed", "err", err)
			} else if n > 0 {
				p.logger.Info("outbox events purged", "count", n)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer messageWriter) (int, error) {
	published := 0
	err := p.pool.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := writer.WriteMessages(ctx, Messages(ctx, records)...); err != nil {
			return fmt.Errorf("write %d events: %w", len(records), err)
		}
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		published = len(ids)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	return published, err
}

// Messages converts outbox rows to Kafka messages, restoring each row's trace context.
func Messages(ctx context.Context, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := r.Trace.Resume(ctx)
		msgs = append(msgs, kafkax.EventMessage(msgCtx, r.EventID, r.EventType, r.AggregateID, r.Payload))
	}
	return msgs
}
