// Package bootstrap opens the storage backends selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/config"
	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/repository"
	"github.com/segyhp/civic-billing/internal/repository/memory"
)

const connectAttempts = 5

// Storage bundles the repositories of one backend. DB and Redis are nil
// for the memory driver.
type Storage struct {
	DB    *sqlx.DB
	Redis *redis.Client

	Citizens      repository.CitizenRepository
	Bills         repository.BillRepository
	Payments      repository.PaymentRepository
	Notifications repository.NotificationRepository
	Sequences     repository.SequenceRepository
}

// Open connects to the configured backend, retrying transient failures.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return openMemory(), nil
	case config.StorageDriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (s *Storage) Close() error {
	var err error
	if s.Redis != nil {
		err = s.Redis.Close()
	}
	if s.DB != nil {
		if dbErr := s.DB.Close(); dbErr != nil {
			err = dbErr
		}
	}
	return err
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	var db *sqlx.DB
	err := retry(ctx, logger, "postgres", func() error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	err = retry(ctx, logger, "redis", func() error {
		return redisClient.Ping(ctx).Err()
	})
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	seeded, err := repository.SeedSequences(ctx, db, redisClient)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, err
	}
	logger.Info("sequences seeded",
		zap.Int64(repository.SequenceBillNumber, seeded[repository.SequenceBillNumber]),
		zap.Int64(repository.SequenceTransaction, seeded[repository.SequenceTransaction]),
		zap.Int64(repository.SequenceReceipt, seeded[repository.SequenceReceipt]),
	)

	return &Storage{
		DB:            db,
		Redis:         redisClient,
		Citizens:      repository.NewCitizenRepository(db),
		Bills:         repository.NewBillRepository(db),
		Payments:      repository.NewPaymentRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Sequences:     repository.NewSequenceRepository(redisClient),
	}, nil
}

func retry(ctx context.Context, logger *zap.Logger, target string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond

	return backoff.RetryNotify(
		op,
		backoff.WithContext(backoff.WithMaxRetries(policy, connectAttempts), ctx),
		func(err error, wait time.Duration) {
			logger.Warn("backend not reachable, retrying",
				zap.String("target", target),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	)
}

func openMemory() *Storage {
	store := memory.NewStore()
	for _, c := range demoCitizens {
		store.AddCitizen(c)
	}

	return &Storage{
		Citizens:      store,
		Bills:         store.Bills(),
		Payments:      store.Payments(),
		Notifications: store,
		Sequences:     store,
	}
}

var demoCitizens = []*domain.Citizen{
	{ID: "CIT0001", Mobile: "9876543210", Name: "Asha Verma", City: "Pune"},
	{ID: "CIT0002", Mobile: "9876543211", Name: "Rahul Nair", City: "Pune"},
	{ID: "CIT0003", Mobile: "9876543212", Name: "Meera Iyer", City: "Pune"},
}
