package ids

import (
	"github.com/google/uuid"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// NewApplicantID gera o identificador de um candidato novo (UUID v4).
func NewApplicantID() domain.ApplicantID {
	return domain.ApplicantID(uuid.NewString())
}

// ParseApplicantID normaliza o UUID para a forma canônica minúscula.
func ParseApplicantID(raw string) (domain.ApplicantID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return domain.ApplicantID(id.String()), nil
}
