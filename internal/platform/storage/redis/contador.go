package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// Contador guarda a projeção de contagens por candidato/eleitor com chaves prefixadas.
// Escritas com mais de uma chave vão num MULTI/EXEC para total e YES/NO nunca divergirem.
type Contador struct {
	client *redis.Client
	prefix string
}

func NewContador(client *redis.Client, prefix string) *Contador {
	return &Contador{
		client: client,
		prefix: prefix,
	}
}

func (c *Contador) Incrementar(ctx context.Context, chaves []string, delta int64) error {
	if len(chaves) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ch := range chaves {
			pipe.IncrBy(ctx, c.key(ch), delta)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis contador: incrementar %d chaves: %w", len(chaves), err)
	}
	return nil
}

// Sobrescrever grava os valores do ledger por cima da projeção; usado na reconciliação.
func (c *Contador) Sobrescrever(ctx context.Context, valores map[string]int64) error {
	if len(valores) == 0 {
		return nil
	}
	pares := make([]any, 0, len(valores)*2)
	for ch, v := range valores {
		pares = append(pares, c.key(ch), v)
	}
	if err := c.client.MSet(ctx, pares...).Err(); err != nil {
		return fmt.Errorf("redis contador: sobrescrever %d chaves: %w", len(valores), err)
	}
	return nil
}

func (c *Contador) ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error) {
	if len(chaves) == 0 {
		return map[string]int64{}, nil
	}

	keys := make([]string, len(chaves))
	for i, ch := range chaves {
		keys[i] = c.key(ch)
	}

	valores, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis contador: mget: %w", err)
	}

	resultado := make(map[string]int64, len(chaves))
	for i, raw := range valores {
		s, ok := raw.(string)
		if !ok {
			// chave ausente: candidato ainda sem votos projetados
			resultado[chaves[i]] = 0
			continue
		}
		num, convErr := strconv.ParseInt(s, 10, 64)
		if convErr != nil {
			return nil, fmt.Errorf("redis contador: valor invalido para %s: %w", chaves[i], convErr)
		}
		resultado[chaves[i]] = num
	}

	return resultado, nil
}

func (c *Contador) key(chave string) string {
	if c.prefix == "" {
		return chave
	}
	return c.prefix + ":" + chave
}

var _ domain.Contador = (*Contador)(nil)
