package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// VoteRepository é o ledger append-only; a unicidade vem do índice em unique_key.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

type voteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UniqueKey   string    `gorm:"column:unique_key"`
	VoterID     string    `gorm:"column:voter_id"`
	ApplicantID string    `gorm:"column:applicant_id"`
	VoteType    string    `gorm:"column:vote_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func (m voteModel) toDomain() domain.Vote {
	return domain.Vote{
		ID:          domain.VoteID(m.ID),
		Key:         m.UniqueKey,
		VoterID:     domain.VoterID(m.VoterID),
		ApplicantID: domain.ApplicantID(m.ApplicantID),
		Type:        domain.VoteType(m.VoteType),
		CreatedAt:   m.CreatedAt,
	}
}

func fromDomainVote(v domain.Vote) voteModel {
	key := v.Key
	if key == "" {
		key = domain.VoteKey(v.VoterID, v.ApplicantID)
	}
	return voteModel{
		ID:          string(v.ID),
		UniqueKey:   key,
		VoterID:     string(v.VoterID),
		ApplicantID: string(v.ApplicantID),
		VoteType:    string(v.Type),
		CreatedAt:   v.CreatedAt,
	}
}

// Insert é um único INSERT: ou o voto existe inteiro ou não existe.
func (r *VoteRepository) Insert(ctx context.Context, vote domain.Vote) error {
	model := fromDomainVote(vote)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("gorm votes: inserir: %w", domain.ErrDuplicateVote)
		}
		return storeErr("gorm votes: inserir", err)
	}
	return nil
}

func (r *VoteRepository) FindByPair(ctx context.Context, voter domain.VoterID, applicant domain.ApplicantID) (domain.Vote, error) {
	var model voteModel
	if err := r.db.WithContext(ctx).
		First(&model, "unique_key = ?", domain.VoteKey(voter, applicant)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Vote{}, domain.ErrNotFound
		}
		return domain.Vote{}, storeErr("gorm votes: buscar par", err)
	}
	return model.toDomain(), nil
}

func (r *VoteRepository) ListByApplicant(ctx context.Context, applicant domain.ApplicantID) ([]domain.Vote, error) {
	var models []voteModel
	if err := r.db.WithContext(ctx).
		Where("applicant_id = ?", string(applicant)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, storeErr("gorm votes: listar por candidato", err)
	}
	return toDomainVotes(models), nil
}

func (r *VoteRepository) ListByVoter(ctx context.Context, voter domain.VoterID) ([]domain.Vote, error) {
	var models []voteModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ?", string(voter)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, storeErr("gorm votes: listar por eleitor", err)
	}
	return toDomainVotes(models), nil
}

func (r *VoteRepository) CountByApplicant(ctx context.Context, applicant domain.ApplicantID, voteType domain.VoteType) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("applicant_id = ?", string(applicant))
	if voteType != "" {
		query = query.Where("vote_type = ?", string(voteType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, storeErr("gorm votes: contar por candidato", err)
	}
	return total, nil
}

func (r *VoteRepository) CountByVoter(ctx context.Context, voter domain.VoterID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("voter_id = ?", string(voter)).
		Count(&total).Error; err != nil {
		return 0, storeErr("gorm votes: contar por eleitor", err)
	}
	return total, nil
}

func toDomainVotes(models []voteModel) []domain.Vote {
	votes := make([]domain.Vote, len(models))
	for i, model := range models {
		votes[i] = model.toDomain()
	}
	return votes
}

var _ domain.VoteStore = (*VoteRepository)(nil)
