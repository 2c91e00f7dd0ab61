package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensify/internal/amqp"
	"expensify/internal/ledger/memory"
	applog "expensify/internal/log"
	"expensify/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// componentLogger tags log lines with the subsystem being initialized.
func (f *DefaultFactory) componentLogger(component string) *slog.Logger {
	return f.logger.With(applog.NewFields().WithComponent(component).ToSlice()...)
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.componentLogger(applog.ComponentStorage).Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Ledger:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)

	f.componentLogger(applog.ComponentBackend).Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Ledger: store}
}

// attachPublisher connects to AMQP when configured. A broker that cannot be
// reached only disables events.
func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	logger := f.componentLogger(applog.ComponentAMQP)
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}
	logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Publisher = client
	ledgerCleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		errs = append(errs, client.Close())
		if ledgerCleanup != nil {
			errs = append(errs, ledgerCleanup())
		}
		return errors.Join(errs...)
	}
}
