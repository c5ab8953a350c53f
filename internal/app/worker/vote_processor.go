// Pacote worker mantém a projeção de contagens no Redis a partir dos recibos publicados na fila.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marcelojr/votacao-candidatos/internal/app/voting"
	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
	"github.com/marcelojr/votacao-candidatos/internal/platform/metrics"
)

// VoteProcessor incrementa contadores por recibo e reconstrói a projeção a partir do ledger.
type VoteProcessor struct {
	contador   domain.Contador
	applicants domain.ApplicantStore
	votes      domain.VoteStore
	clock      domain.Clock

	mu sync.Mutex // serializa Process e Reconciliar
	// Recibos com created_at antes do corte já estão nos contadores. Depois do corte,
	// só os ids lidos pela reconciliação foram contados.
	corte    time.Time
	recentes map[domain.VoteID]struct{}
}

// MargemReconciliacao cobre o intervalo entre o carimbo de created_at no gateway e o commit do voto
// (lock, retries e timeout do armazenamento). Deve ser maior que o pior caso de um CastVote.
const MargemReconciliacao = time.Minute

func NewVoteProcessor(contador domain.Contador, applicants domain.ApplicantStore, votes domain.VoteStore, clock domain.Clock) *VoteProcessor {
	return &VoteProcessor{
		contador:   contador,
		applicants: applicants,
		votes:      votes,
		clock:      clock,
	}
}

func (p *VoteProcessor) Process(ctx context.Context, recibo domain.VoteReceipt) error {
	start := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	if !recibo.Type.Valid() {
		return fmt.Errorf("worker: recibo %s: %w", recibo.VoteID, domain.ErrInvalidVoteType)
	}
	if p.jaContado(recibo) {
		logger.Debug("worker: recibo ja contado na reconciliacao", "vote", recibo.VoteID)
		return nil
	}

	chaves := []string{
		voting.CounterKeyApplicantTotal(recibo.ApplicantID),
		voting.CounterKeyApplicantType(recibo.ApplicantID, recibo.Type),
		voting.CounterKeyVoterTotal(recibo.VoterID),
	}
	if err := p.contador.Incrementar(ctx, chaves, 1); err != nil {
		return fmt.Errorf("worker: recibo %s: %w", recibo.VoteID, err)
	}

	metrics.IncEventProcessed()
	metrics.ObserveProcessingDuration(time.Since(start).Seconds())
	return nil
}

func (p *VoteProcessor) jaContado(recibo domain.VoteReceipt) bool {
	if p.corte.IsZero() {
		return false
	}
	if recibo.CreatedAt.Before(p.corte) {
		return true
	}
	_, ok := p.recentes[recibo.VoteID]
	return ok
}

// Reconciliar sobrescreve os contadores com as contagens do ledger. Corrige recibos perdidos na publicação.
func (p *VoteProcessor) Reconciliar(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	corte := p.clock.Agora().Add(-MargemReconciliacao)

	applicants, err := p.applicants.List(ctx)
	if err != nil {
		return fmt.Errorf("worker: listar candidatos: %w", err)
	}

	valores := make(map[string]int64, len(applicants)*3)
	porEleitor := make(map[domain.VoterID]int64)
	recentes := make(map[domain.VoteID]struct{})
	for _, a := range applicants {
		votes, err := p.votes.ListByApplicant(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("worker: votos de %s: %w", a.ID, err)
		}

		var yes, no int64
		for _, v := range votes {
			if v.Type == domain.VoteYes {
				yes++
			} else {
				no++
			}
			porEleitor[v.VoterID]++
			if !v.CreatedAt.Before(corte) {
				recentes[v.ID] = struct{}{}
			}
		}

		valores[voting.CounterKeyApplicantTotal(a.ID)] = yes + no
		valores[voting.CounterKeyApplicantType(a.ID, domain.VoteYes)] = yes
		valores[voting.CounterKeyApplicantType(a.ID, domain.VoteNo)] = no
	}
	for voter, total := range porEleitor {
		valores[voting.CounterKeyVoterTotal(voter)] = total
	}

	if err := p.contador.Sobrescrever(ctx, valores); err != nil {
		return fmt.Errorf("worker: sobrescrever projecao: %w", err)
	}

	p.corte = corte
	p.recentes = recentes
	logger.Info("worker: projecao reconciliada", "candidatos", len(applicants), "eleitores", len(porEleitor))
	return nil
}

// ReconciliarACada roda Reconciliar no intervalo dado até o contexto acabar. Falhas só são logadas.
func (p *VoteProcessor) ReconciliarACada(ctx context.Context, intervalo time.Duration) {
	if intervalo <= 0 {
		return
	}
	ticker := time.NewTicker(intervalo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Reconciliar(ctx); err != nil && ctx.Err() == nil {
				logger.Error("worker: reconciliacao periodica falhou", "err", err)
			}
		}
	}
}
