package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/storage/storetest"
)

func TestApplicantStoreContract(t *testing.T) {
	storetest.RunApplicantStore(t, func(*testing.T) domain.ApplicantStore { return NewApplicantStore() })
}

func TestVoteStoreContract(t *testing.T) {
	storetest.RunVoteStore(t, func(*testing.T) domain.VoteStore { return NewVoteStore() })
}

func TestVoteStore_QuandoContextoCancelado_NaoDeveGravar(t *testing.T) {
	store := NewVoteStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Insert(ctx, domain.Vote{ID: "v1", VoterID: "u1", ApplicantID: "A1", Type: domain.VoteYes})
	assert.ErrorIs(t, err, context.Canceled)

	total, err := store.CountByApplicant(context.Background(), "A1", "")
	assert.NoError(t, err)
	assert.Zero(t, total)
}

func TestApplicantStore_BulkCreate_QuandoLoteTemRepetido_NaoDeveGravarNada(t *testing.T) {
	store := NewApplicantStore()
	a := domain.Applicant{ID: "A1", Name: "Kamila"}

	err := store.BulkCreate(context.Background(), []domain.Applicant{a, a})
	assert.ErrorIs(t, err, domain.ErrInvalidApplicant)

	lista, err := store.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, lista)
}
