// Pacote antifraude limita a frequência de votos por eleitor com janelas fixas no Redis.
package antifraude

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

var ErrRateLimitExceeded = errors.New("limite de votos atingido")

// INCR e expiração no mesmo script: uma chave nunca fica sem TTL, inclusive a que já estava assim.
var incrWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// LimitError informa quanto falta para a janela do eleitor reabrir.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s, tente em %s", ErrRateLimitExceeded, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error { return ErrRateLimitExceeded }

// RetryAfter extrai a espera sugerida de um erro de limite; zero quando não se aplica.
func RetryAfter(err error) time.Duration {
	var le *LimitError
	if errors.As(err, &le) {
		return le.RetryAfter
	}
	return 0
}

// RedisRateLimiter limita tentativas de voto por eleitor em janelas fixas.
// Falha do Redis não bloqueia o voto: a unicidade continua garantida pelo ledger.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) Validar(ctx context.Context, vote domain.Vote) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		return nil
	}

	key := r.buildKey(vote.VoterID)

	res, err := incrWindowScript.Run(ctx, r.client, []string{key}, r.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("antifraude: redis indisponivel, liberando voto", "voter", vote.VoterID, "err", err)
		return nil
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count <= int64(r.limit) {
		return nil
	}
	return &LimitError{RetryAfter: ttl}
}

func (r *RedisRateLimiter) buildKey(voter domain.VoterID) string {
	// Hash evita expor o identificador do provedor diretamente no Redis.
	hash := sha256.Sum256([]byte(voter))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:16]))
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)
