package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// ApplicantRepository é o catálogo de candidatos ("applicants").
type ApplicantRepository struct {
	db *gorm.DB
}

func NewApplicantRepository(db *gorm.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

type applicantModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name"`
	Surname   string    `gorm:"column:surname"`
	Age       int       `gorm:"column:age"`
	Faculty   string    `gorm:"column:faculty"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (applicantModel) TableName() string {
	return "applicants"
}

func (m applicantModel) toDomain() domain.Applicant {
	return domain.Applicant{
		ID:        domain.ApplicantID(m.ID),
		Name:      m.Name,
		Surname:   m.Surname,
		Age:       m.Age,
		Faculty:   domain.Faculty(m.Faculty),
		CreatedAt: m.CreatedAt,
	}
}

func fromDomainApplicant(a domain.Applicant) applicantModel {
	return applicantModel{
		ID:        string(a.ID),
		Name:      a.Name,
		Surname:   a.Surname,
		Age:       a.Age,
		Faculty:   string(a.Faculty),
		CreatedAt: a.CreatedAt,
	}
}

func (r *ApplicantRepository) BulkCreate(ctx context.Context, applicants []domain.Applicant) error {
	if len(applicants) == 0 {
		return nil
	}

	// Sem created_at explícito, espaçamos em microssegundos para preservar a ordem da carga.
	base := time.Now().UTC().Truncate(time.Microsecond)
	models := make([]applicantModel, len(applicants))
	for i, a := range applicants {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		}
		models[i] = fromDomainApplicant(a)
	}

	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("gorm applicants: bulk create: %w: id repetido", domain.ErrInvalidApplicant)
		}
		return storeErr("gorm applicants: bulk create", err)
	}
	return nil
}

func (r *ApplicantRepository) List(ctx context.Context) ([]domain.Applicant, error) {
	var models []applicantModel
	if err := r.db.WithContext(ctx).
		// A ordem do catálogo é a ordem de carga; id desempata cargas no mesmo instante.
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, storeErr("gorm applicants: listar", err)
	}

	result := make([]domain.Applicant, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func (r *ApplicantRepository) FindByID(ctx context.Context, id domain.ApplicantID) (domain.Applicant, error) {
	var model applicantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Applicant{}, domain.ErrNotFound
		}
		return domain.Applicant{}, storeErr("gorm applicants: buscar id", err)
	}
	return model.toDomain(), nil
}

var _ domain.ApplicantStore = (*ApplicantRepository)(nil)
