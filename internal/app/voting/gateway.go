package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
	"github.com/marcelojr/votacao-candidatos/internal/platform/metrics"
)

const publishTimeout = 2 * time.Second

type GatewayOptions struct {
	// MaxRetries limita as novas tentativas após ErrStoreUnavailable; zero grava uma vez só.
	MaxRetries    uint64
	RetryInterval time.Duration
	// StoreTimeout limita cada tentativa de gravação; zero usa só o contexto do chamador.
	StoreTimeout time.Duration
}

// Gateway é a única porta de escrita de votos.
type Gateway struct {
	ledger     *Ledger
	tally      *Tally
	locker     domain.KeyLocker
	antifraude domain.Antifraude
	fila       domain.Fila
	opts       GatewayOptions
}

// NewGateway aceita locker, antifraude e fila nulos: sem lock a unicidade fica só com o índice do banco,
// sem fila a projeção depende da reconciliação do worker.
func NewGateway(
	ledger *Ledger,
	tally *Tally,
	locker domain.KeyLocker,
	antifraude domain.Antifraude,
	fila domain.Fila,
	opts GatewayOptions,
) *Gateway {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	return &Gateway{
		ledger:     ledger,
		tally:      tally,
		locker:     locker,
		antifraude: antifraude,
		fila:       fila,
		opts:       opts,
	}
}

func (g *Gateway) CastVote(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID, voteType domain.VoteType) (domain.VoteReceipt, error) {
	inicio := time.Now()
	defer func() {
		metrics.ObserveCastDuration(time.Since(inicio).Seconds())
	}()

	if voter == "" {
		return domain.VoteReceipt{}, domain.ErrAuthentication
	}
	if !voteType.Valid() {
		return domain.VoteReceipt{}, domain.ErrInvalidVoteType
	}
	applicant, err := g.ledger.requireApplicant(ctx, applicant)
	if err != nil {
		return domain.VoteReceipt{}, err
	}

	// id e horário são fixados antes das tentativas para que um retry reconheça a própria gravação.
	agora := g.ledger.clock.Agora()
	vote := domain.Vote{
		ID:          g.ledger.ids.NewVoteID(agora),
		Key:         domain.VoteKey(voter, applicant),
		VoterID:     voter,
		ApplicantID: applicant,
		Type:        voteType,
		CreatedAt:   agora,
	}

	if g.antifraude != nil {
		if err := g.antifraude.Validar(ctx, vote); err != nil {
			return domain.VoteReceipt{}, err
		}
	}

	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, vote.Key)
		if err != nil {
			return domain.VoteReceipt{}, fmt.Errorf("gateway: travar par: %w", err)
		}
		defer unlock()
	}

	voted, err := g.tally.HasVoted(ctx, voter, applicant)
	if err != nil {
		return domain.VoteReceipt{}, err
	}
	if voted {
		return domain.VoteReceipt{}, domain.ErrDuplicateVote
	}

	stored, err := g.appendWithRetry(ctx, vote)
	if err != nil {
		return domain.VoteReceipt{}, err
	}

	receipt := domain.ReceiptFor(stored)
	g.publish(ctx, receipt)
	return receipt, nil
}

func (g *Gateway) appendWithRetry(ctx context.Context, vote domain.Vote) (domain.Vote, error) {
	var (
		stored    domain.Vote
		tentativa int
	)

	op := func() error {
		tentativa++
		if tentativa > 1 {
			metrics.IncStoreRetry()
		}

		v, err := g.insertOnce(ctx, vote)
		switch {
		case err == nil:
			stored = v
			return nil
		case errors.Is(err, domain.ErrStoreUnavailable):
			logger.Warn("gateway: armazenamento indisponivel", "tentativa", tentativa, "voter", vote.VoterID, "err", err)
			return err
		case errors.Is(err, domain.ErrDuplicateVote) && tentativa > 1:
			// a tentativa anterior pode ter sido gravada antes da falha chegar até aqui
			existing, ferr := g.ledger.votes.FindByPair(ctx, vote.VoterID, vote.ApplicantID)
			if ferr == nil && existing.ID == vote.ID {
				stored = existing
				return nil
			}
			return backoff.Permanent(err)
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.opts.RetryInterval
	policy.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, g.opts.MaxRetries), ctx)); err != nil {
		return domain.Vote{}, err
	}
	return stored, nil
}

func (g *Gateway) insertOnce(ctx context.Context, vote domain.Vote) (domain.Vote, error) {
	if g.opts.StoreTimeout <= 0 {
		return g.ledger.insert(ctx, vote)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, g.opts.StoreTimeout)
	defer cancel()

	v, err := g.ledger.insert(attemptCtx, vote)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		// estourou o prazo da tentativa, não o do chamador
		return domain.Vote{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return v, err
}

// publish alimenta a projeção. Falha aqui não desfaz o voto; o worker reconcilia na próxima subida.
func (g *Gateway) publish(ctx context.Context, receipt domain.VoteReceipt) {
	if g.fila == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := g.fila.PublicarVoto(pubCtx, receipt)
	metrics.ObserveEventPublished(err == nil)
	if err != nil {
		logger.Error("gateway: falha ao publicar recibo", "vote", receipt.VoteID, "applicant", receipt.ApplicantID, "err", err)
	}
}
