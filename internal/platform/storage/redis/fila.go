// Pacote redis implementa a fila de recibos e os contadores da projeção sobre Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

// Fila usa uma lista Redis para entregar recibos de voto ao worker de projeção.
// Payloads ilegíveis vão para a lista "<key>:invalidos" e o consumo segue.
type Fila struct {
	client     *redis.Client
	key        string
	deadLetter string
	timeout    time.Duration
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client:     client,
		key:        key,
		deadLetter: key + ":invalidos",
		timeout:    5 * time.Second,
	}
}

func (f *Fila) PublicarVoto(ctx context.Context, recibo domain.VoteReceipt) error {
	payload, err := json.Marshal(recibo)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando recibo %s: %w", recibo.VoteID, err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar recibo %s: %w", recibo.VoteID, err)
	}
	return nil
}

// ConsumirVotos entrega recibos em ordem de publicação até o contexto acabar ou o handler falhar.
func (f *Fila) ConsumirVotos(ctx context.Context, handler func(context.Context, domain.VoteReceipt) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// BRPOP com timeout curto para voltar a olhar o contexto com frequência.
		res, err := f.client.BRPop(ctx, f.timeout, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis fila: falha ao consumir recibo: %w", err)
		}
		if len(res) != 2 {
			continue
		}

		recibo, err := decodeRecibo(res[1])
		if err != nil {
			if dlErr := f.client.LPush(ctx, f.deadLetter, res[1]).Err(); dlErr != nil {
				return fmt.Errorf("redis fila: mover payload invalido: %w", dlErr)
			}
			logger.Warn("redis fila: payload invalido descartado", "fila", f.deadLetter, "err", err)
			continue
		}

		if err := handler(ctx, recibo); err != nil {
			return err
		}
	}
}

func decodeRecibo(raw string) (domain.VoteReceipt, error) {
	var recibo domain.VoteReceipt
	if err := json.Unmarshal([]byte(raw), &recibo); err != nil {
		return domain.VoteReceipt{}, err
	}
	if recibo.VoteID == "" || recibo.VoterID == "" || recibo.ApplicantID == "" {
		return domain.VoteReceipt{}, fmt.Errorf("recibo incompleto")
	}
	return recibo, nil
}

// Len expõe o tamanho da fila para testes e diagnóstico.
func (f *Fila) Len(ctx context.Context) (int64, error) {
	return f.client.LLen(ctx, f.key).Result()
}

var _ domain.Fila = (*Fila)(nil)
