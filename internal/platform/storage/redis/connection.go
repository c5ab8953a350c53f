package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// StartupTimeout limita quanto tempo esperamos o Redis subir junto com a API.
	StartupTimeout time.Duration
}

// NewClient conecta e tenta PING com backoff exponencial até StartupTimeout.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 50
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = 15 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		PoolTimeout: 5 * time.Second,
	})

	if err := pingWithBackoff(ctx, opts.StartupTimeout, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping falhou em %s: %w", opts.Addr, err)
	}

	return client, nil
}

func pingWithBackoff(ctx context.Context, limite time.Duration, ping func(context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = limite

	tentativa := 0
	return backoff.Retry(func() error {
		tentativa++
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := ping(ctxPing)
		if err != nil && tentativa > 1 {
			logger.Warn("redis: aguardando servidor", "tentativa", tentativa, "err", err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}
