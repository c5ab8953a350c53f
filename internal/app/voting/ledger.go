// Pacote voting implementa as regras da votação de candidatos: ledger, contagens, gateway e catálogo.
package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
)

// Ledger é o registro append-only de votos. Nunca altera nem remove um voto gravado.
type Ledger struct {
	votes      domain.VoteStore
	applicants domain.ApplicantStore
	clock      domain.Clock
	ids        *ids.Generator
}

func NewLedger(votes domain.VoteStore, applicants domain.ApplicantStore, clock domain.Clock, idsGen *ids.Generator) *Ledger {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Ledger{
		votes:      votes,
		applicants: applicants,
		clock:      clock,
		ids:        idsGen,
	}
}

// Append valida tipo e candidato e grava o voto. Um par já registrado devolve ErrDuplicateVote.
func (l *Ledger) Append(ctx context.Context, vote domain.Vote) (domain.Vote, error) {
	if !vote.Type.Valid() {
		return domain.Vote{}, domain.ErrInvalidVoteType
	}
	applicant, err := l.requireApplicant(ctx, vote.ApplicantID)
	if err != nil {
		return domain.Vote{}, err
	}
	vote.ApplicantID = applicant
	return l.insert(ctx, vote)
}

func (l *Ledger) QueryByApplicant(ctx context.Context, applicant domain.ApplicantID) ([]domain.Vote, error) {
	id, ok := normalizeApplicantID(applicant)
	if !ok {
		return []domain.Vote{}, nil
	}
	votes, err := l.votes.ListByApplicant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: votos do candidato: %w", err)
	}
	return votes, nil
}

func (l *Ledger) QueryByVoter(ctx context.Context, voter domain.VoterID) ([]domain.Vote, error) {
	votes, err := l.votes.ListByVoter(ctx, voter)
	if err != nil {
		return nil, fmt.Errorf("ledger: votos do eleitor: %w", err)
	}
	return votes, nil
}

func (l *Ledger) Exists(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID) (bool, error) {
	id, ok := normalizeApplicantID(applicant)
	if !ok {
		return false, nil
	}
	_, err := l.votes.FindByPair(ctx, voter, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: buscar par: %w", err)
	}
	return true, nil
}

// normalizeApplicantID leva o id à forma gravada no ledger. Leituras tratam id inválido como ausente.
func normalizeApplicantID(raw domain.ApplicantID) (domain.ApplicantID, bool) {
	id, err := ids.ParseApplicantID(string(raw))
	if err != nil {
		return "", false
	}
	return id, true
}

// requireApplicant normaliza o id e confirma que o candidato está no catálogo.
func (l *Ledger) requireApplicant(ctx context.Context, raw domain.ApplicantID) (domain.ApplicantID, error) {
	id, err := ids.ParseApplicantID(string(raw))
	if err != nil {
		return "", domain.ErrUnknownApplicant
	}
	if _, err := l.applicants.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnknownApplicant
		}
		return "", fmt.Errorf("ledger: buscar candidato: %w", err)
	}
	return id, nil
}

// insert grava sem revalidar; o gateway chama depois de validar uma única vez.
func (l *Ledger) insert(ctx context.Context, vote domain.Vote) (domain.Vote, error) {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = l.clock.Agora()
	}
	if vote.ID == "" {
		vote.ID = l.ids.NewVoteID(vote.CreatedAt)
	}
	vote.Key = domain.VoteKey(vote.VoterID, vote.ApplicantID)

	if err := l.votes.Insert(ctx, vote); err != nil {
		return domain.Vote{}, err
	}
	return vote, nil
}
