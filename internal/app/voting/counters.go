package voting

import (
	"fmt"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

func CounterKeyApplicantTotal(id domain.ApplicantID) string {
	return fmt.Sprintf("applicant:%s:total", id)
}

func CounterKeyApplicantType(id domain.ApplicantID, voteType domain.VoteType) string {
	return fmt.Sprintf("applicant:%s:%s", id, voteType)
}

func CounterKeyVoterTotal(id domain.VoterID) string {
	return fmt.Sprintf("voter:%s:total", id)
}

// CounterKeysForApplicant devolve total, YES e NO nessa ordem.
func CounterKeysForApplicant(id domain.ApplicantID) []string {
	return []string{
		CounterKeyApplicantTotal(id),
		CounterKeyApplicantType(id, domain.VoteYes),
		CounterKeyApplicantType(id, domain.VoteNo),
	}
}
