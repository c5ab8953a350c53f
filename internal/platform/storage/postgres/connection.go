// Pacote postgres implementa catálogo e ledger de votos no Postgres via GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

type Options struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// StartupTimeout cobre o Postgres ainda subindo no docker compose.
	StartupTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		MaxOpenConns:    25,
		ConnMaxLifetime: time.Hour,
		StartupTimeout:  20 * time.Second,
	}
}

type Option func(*Options)

func WithMaxOpenConns(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxOpenConns = n
		}
	}
}

func WithStartupTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.StartupTimeout = d
		}
	}
}

func Open(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	// TranslateError converte violação de índice único em gorm.ErrDuplicatedKey.
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: abrir conexao: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: obter sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = cfg.StartupTimeout

	tentativa := 0
	err = backoff.Retry(func() error {
		tentativa++
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pingErr := sqlDB.PingContext(ctxPing)
		if pingErr != nil && tentativa > 1 {
			logger.Warn("postgres: aguardando banco", "tentativa", tentativa, "err", pingErr)
		}
		return pingErr
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres gorm: ping falhou: %w", err)
	}

	return gormDB, nil
}

// storeErr classifica falhas do driver: cancelamento segue como está, o resto vira ErrStoreUnavailable.
func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
