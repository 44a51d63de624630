package backend

import (
	"context"
	"errors"
	"fmt"

	"finsight/internal/amqp"
	"finsight/internal/log"
	"finsight/internal/storage"
	"finsight/internal/store/memory"
)

// Factory builds backends.
type Factory struct {
	logger *log.Logger
	// dial is swapped in tests to avoid a broker.
	dial func(url, exchange, queue string, logger *log.Logger) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend), dial: amqp.NewClient}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch cfg.Type {
	case SQLite:
		res, err = f.createSQLite(cfg)
	case Memory:
		res = f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled, record events will not be published")
		return res, nil
	}
	client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
	if err != nil {
		// Events are best effort; the store works without them.
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return res, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	res.Publisher = client
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		errs = append(errs, client.Close())
		if storeCleanup != nil {
			errs = append(errs, storeCleanup())
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Ready: repo.Ping, Cleanup: repo.Close}, nil
}

func (f *Factory) createMemory() *Result {
	f.logger.Info("Initialized memory backend")
	return &Result{
		Store: memory.New(),
		Ready: func(context.Context) error { return nil },
	}
}
