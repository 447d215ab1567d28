package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jorundl/costofliving-etl/config"
	"github.com/jorundl/costofliving-etl/extract"
	"github.com/jorundl/costofliving-etl/load"
	"github.com/jorundl/costofliving-etl/transform"
)

// ObjectFetcher retrieves one object body from the configured bucket.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// WarehouseWriter bulk-loads a decoded dataset into the target table.
type WarehouseWriter interface {
	Load(ctx context.Context, table string, dataset *transform.Dataset) (int64, error)
	Close() error
}

type Pipeline struct {
	Fetcher ObjectFetcher
	Writer  WarehouseWriter
	Logger  *slog.Logger
	Bucket  string
	Key     string
	Table   string
}

// New wires the production stages: an S3 fetcher and a Snowflake writer.
// Opening the warehouse session here means bad credentials fail the run
// before the object store is ever contacted with data in hand.
func New(ctx context.Context, cfg *config.Config, secrets config.Secrets, logger *slog.Logger) (*Pipeline, error) {
	fetcher, err := extract.NewS3Client(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating S3 client: %w", err)
	}

	writer, err := load.NewSnowflake(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("error opening Snowflake session: %w", err)
	}

	return &Pipeline{
		Fetcher: fetcher,
		Writer:  writer,
		Logger:  logger,
		Bucket:  secrets.BucketName,
		Key:     cfg.S3.ObjectKey,
		Table:   cfg.Snowflake.Table,
	}, nil
}

func (p *Pipeline) Close() {
	if p.Writer != nil {
		if err := p.Writer.Close(); err != nil {
			p.Logger.Warn("Error closing warehouse session", "error", err)
		}
	}
}

// Run executes fetch, decode and load in sequence. The first stage error
// aborts the run; there is no retry, rollback or partial-failure handling.
func (p *Pipeline) Run(ctx context.Context) (int64, error) {
	body, err := p.Fetcher.FetchObject(ctx, p.Bucket, p.Key)
	if err != nil {
		return 0, fmt.Errorf("error fetching s3://%s/%s: %w", p.Bucket, p.Key, err)
	}

	dataset, err := transform.DecodeCSV(body)
	if err != nil {
		return 0, fmt.Errorf("error decoding %s: %w", p.Key, err)
	}
	p.Logger.Info("Decoded dataset", "rows", dataset.Count(), "columns", len(dataset.Columns))

	rows, err := p.Writer.Load(ctx, p.Table, dataset)
	if err != nil {
		return 0, fmt.Errorf("error loading %d rows into %s: %w", dataset.Count(), p.Table, err)
	}

	return rows, nil
}
