package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/migrations"
	"github.com/marcelojr/votacao-candidatos/internal/platform/storage/storetest"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Cada conexão sqlite :memory: é um banco separado; uma conexão só mantém o mesmo banco entre goroutines.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrations.Run(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func TestApplicantRepositoryContract(t *testing.T) {
	storetest.RunApplicantStore(t, func(t *testing.T) domain.ApplicantStore {
		return NewApplicantRepository(setupDB(t))
	})
}

func TestVoteRepositoryContract(t *testing.T) {
	storetest.RunVoteStore(t, func(t *testing.T) domain.VoteStore {
		return NewVoteRepository(setupDB(t))
	})
}

func TestVoteRepository_Insert_QuandoChaveVazia_DeveDerivarDoPar(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	err := repo.Insert(ctx, domain.Vote{
		ID:          "01HXXXXXXXXXXXXXXXXXXXXXXA",
		VoterID:     "u1",
		ApplicantID: "A1",
		Type:        domain.VoteYes,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	var model voteModel
	require.NoError(t, db.First(&model, "id = ?", "01HXXXXXXXXXXXXXXXXXXXXXXA").Error)
	assert.Equal(t, domain.VoteKey("u1", "A1"), model.UniqueKey)
}

func TestVoteRepository_QuandoBancoFechado_DeveSinalizarIndisponibilidade(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.CountByApplicant(context.Background(), "A1", "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = repo.Insert(context.Background(), domain.Vote{ID: "v1", VoterID: "u1", ApplicantID: "A1", Type: domain.VoteYes})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestVoteRepository_QuandoContextoCancelado_NaoDeveMarcarIndisponivel(t *testing.T) {
	repo := NewVoteRepository(setupDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListByVoter(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}
