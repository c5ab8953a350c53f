package voting

import (
	"context"
	"fmt"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// Tally responde contagens direto do ledger; é a fonte autoritativa.
type Tally struct {
	ledger *Ledger
}

func NewTally(ledger *Ledger) *Tally {
	return &Tally{ledger: ledger}
}

// CountForApplicant conta YES+NO quando voteType é vazio, ou só o tipo pedido.
func (t *Tally) CountForApplicant(ctx context.Context, applicant domain.ApplicantID, voteType domain.VoteType) (int64, error) {
	if voteType != "" && !voteType.Valid() {
		return 0, domain.ErrInvalidVoteType
	}
	id, ok := normalizeApplicantID(applicant)
	if !ok {
		return 0, nil
	}
	total, err := t.ledger.votes.CountByApplicant(ctx, id, voteType)
	if err != nil {
		return 0, fmt.Errorf("tally: contar candidato: %w", err)
	}
	return total, nil
}

func (t *Tally) CountForVoter(ctx context.Context, voter domain.VoterID) (int64, error) {
	total, err := t.ledger.votes.CountByVoter(ctx, voter)
	if err != nil {
		return 0, fmt.Errorf("tally: contar eleitor: %w", err)
	}
	return total, nil
}

func (t *Tally) HasVoted(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID) (bool, error) {
	return t.ledger.Exists(ctx, voter, applicant)
}

func (t *Tally) ApplicantsVotedBy(ctx context.Context, voter domain.VoterID) ([]domain.ApplicantID, error) {
	votes, err := t.ledger.QueryByVoter(ctx, voter)
	if err != nil {
		return nil, err
	}
	applicants := make([]domain.ApplicantID, len(votes))
	for i, v := range votes {
		applicants[i] = v.ApplicantID
	}
	return applicants, nil
}
