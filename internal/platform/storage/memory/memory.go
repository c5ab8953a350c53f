// Pacote memory oferece catálogo e ledger em memória com o mesmo contrato dos repositórios GORM.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

type ApplicantStore struct {
	mu    sync.RWMutex
	order []domain.ApplicantID
	byID  map[domain.ApplicantID]domain.Applicant
}

func NewApplicantStore(seed ...domain.Applicant) *ApplicantStore {
	s := &ApplicantStore{byID: make(map[domain.ApplicantID]domain.Applicant)}
	for _, a := range seed {
		s.order = append(s.order, a.ID)
		s.byID[a.ID] = a
	}
	return s
}

func (s *ApplicantStore) BulkCreate(ctx context.Context, applicants []domain.Applicant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Tudo ou nada, como o INSERT em lote.
	seen := make(map[domain.ApplicantID]struct{}, len(applicants))
	for _, a := range applicants {
		if _, ok := s.byID[a.ID]; ok {
			return fmt.Errorf("memory applicants: %w: id repetido %s", domain.ErrInvalidApplicant, a.ID)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("memory applicants: %w: id repetido %s", domain.ErrInvalidApplicant, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	for _, a := range applicants {
		s.order = append(s.order, a.ID)
		s.byID[a.ID] = a
	}
	return nil
}

func (s *ApplicantStore) List(ctx context.Context) ([]domain.Applicant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Applicant, len(s.order))
	for i, id := range s.order {
		result[i] = s.byID[id]
	}
	return result, nil
}

func (s *ApplicantStore) FindByID(ctx context.Context, id domain.ApplicantID) (domain.Applicant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Applicant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return domain.Applicant{}, domain.ErrNotFound
	}
	return a, nil
}

// VoteStore guarda votos indexados pela chave de unicidade; Insert checa e grava sob o mesmo lock.
type VoteStore struct {
	mu    sync.RWMutex
	votes []domain.Vote
	byKey map[string]int
}

func NewVoteStore() *VoteStore {
	return &VoteStore{byKey: make(map[string]int)}
}

func (s *VoteStore) Insert(ctx context.Context, vote domain.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vote.Key == "" {
		vote.Key = domain.VoteKey(vote.VoterID, vote.ApplicantID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[vote.Key]; ok {
		return fmt.Errorf("memory votes: inserir: %w", domain.ErrDuplicateVote)
	}
	s.byKey[vote.Key] = len(s.votes)
	s.votes = append(s.votes, vote)
	return nil
}

func (s *VoteStore) FindByPair(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID) (domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vote{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byKey[domain.VoteKey(voter, applicant)]
	if !ok {
		return domain.Vote{}, domain.ErrNotFound
	}
	return s.votes[i], nil
}

func (s *VoteStore) ListByApplicant(ctx context.Context, applicant domain.ApplicantID) ([]domain.Vote, error) {
	votes, err := s.filter(ctx, func(v domain.Vote) bool { return v.ApplicantID == applicant })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(votes, func(a, b domain.Vote) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return votes, nil
}

func (s *VoteStore) ListByVoter(ctx context.Context, voter domain.VoterID) ([]domain.Vote, error) {
	return s.filter(ctx, func(v domain.Vote) bool { return v.VoterID == voter })
}

func (s *VoteStore) CountByApplicant(ctx context.Context, applicant domain.ApplicantID, voteType domain.VoteType) (int64, error) {
	votes, err := s.filter(ctx, func(v domain.Vote) bool {
		return v.ApplicantID == applicant && (voteType == "" || v.Type == voteType)
	})
	return int64(len(votes)), err
}

func (s *VoteStore) CountByVoter(ctx context.Context, voter domain.VoterID) (int64, error) {
	votes, err := s.filter(ctx, func(v domain.Vote) bool { return v.VoterID == voter })
	return int64(len(votes)), err
}

func (s *VoteStore) filter(ctx context.Context, keep func(domain.Vote) bool) ([]domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Vote{}
	for _, v := range s.votes {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

var (
	_ domain.ApplicantStore = (*ApplicantStore)(nil)
	_ domain.VoteStore      = (*VoteStore)(nil)
)
