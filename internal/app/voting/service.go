package voting

import (
	"context"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// Service expõe ao HTTP as operações do gateway, do tally e do catálogo.
type Service struct {
	ledger     *Ledger
	tally      *Tally
	gateway    *Gateway
	applicants *ApplicantService
}

var _ domain.VotingService = (*Service)(nil)

func NewService(ledger *Ledger, tally *Tally, gateway *Gateway, applicants *ApplicantService) *Service {
	return &Service{
		ledger:     ledger,
		tally:      tally,
		gateway:    gateway,
		applicants: applicants,
	}
}

func (s *Service) CastVote(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID, voteType domain.VoteType) (domain.VoteReceipt, error) {
	return s.gateway.CastVote(ctx, voter, applicant, voteType)
}

func (s *Service) ListApplicants(ctx context.Context, includeVotes bool) ([]domain.Applicant, error) {
	return s.applicants.ListApplicants(ctx, includeVotes)
}

func (s *Service) GetApplicantByID(ctx context.Context, id domain.ApplicantID) (*domain.Applicant, error) {
	return s.applicants.GetApplicantByID(ctx, id)
}

func (s *Service) CountForApplicant(ctx context.Context, id domain.ApplicantID, voteType domain.VoteType) (int64, error) {
	return s.tally.CountForApplicant(ctx, id, voteType)
}

func (s *Service) CountForVoter(ctx context.Context, voter domain.VoterID) (int64, error) {
	return s.tally.CountForVoter(ctx, voter)
}

func (s *Service) ApplicantsVotedBy(ctx context.Context, voter domain.VoterID) ([]domain.ApplicantID, error) {
	return s.tally.ApplicantsVotedBy(ctx, voter)
}

func (s *Service) HasVoted(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID) (bool, error) {
	return s.tally.HasVoted(ctx, voter, applicant)
}

// History devolve os votos do candidato em ordem cronológica.
func (s *Service) History(ctx context.Context, id domain.ApplicantID) ([]domain.Vote, error) {
	return s.ledger.QueryByApplicant(ctx, id)
}

func (s *Service) Panorama(ctx context.Context) ([]domain.ApplicantTally, error) {
	return s.applicants.Panorama(ctx)
}
