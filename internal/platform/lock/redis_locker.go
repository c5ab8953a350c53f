package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

// Só apaga a chave se o token ainda for nosso; evita liberar um lease que expirou e foi retomado.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker usa SET NX PX como lease distribuído entre réplicas da API.
type RedisLocker struct {
	client    *redis.Client
	ttl       time.Duration
	retry     time.Duration
	keyPrefix string
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, prefix string) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retry:     10 * time.Millisecond,
		keyPrefix: prefix,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("redis lock: token: %w", err)
	}
	k := l.key(key)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("redis lock: adquirir %s: %w: %w", key, domain.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// O contexto da requisição pode já ter sido cancelado; a liberação usa o seu próprio.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err(); err != nil {
				logger.Warn("falha liberando lock, aguardando expiracao", "key", k, "ttl", l.ttl, "err", err)
			}
		})
	}, nil
}

func (l *RedisLocker) key(key string) string {
	return fmt.Sprintf("%s:%s", l.keyPrefix, key)
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ domain.KeyLocker = (*RedisLocker)(nil)
