// Pacote storetest reúne a suíte de contrato que toda implementação de catálogo e ledger precisa passar.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newVote(gen *ids.Generator, voter domain.VoterID, applicant domain.ApplicantID, tipo domain.VoteType, at time.Time) domain.Vote {
	return domain.Vote{
		ID:          gen.NewVoteID(at),
		Key:         domain.VoteKey(voter, applicant),
		VoterID:     voter,
		ApplicantID: applicant,
		Type:        tipo,
		CreatedAt:   at,
	}
}

// RunApplicantStore valida ordem de catálogo e busca por id.
func RunApplicantStore(t *testing.T, newStore func(t *testing.T) domain.ApplicantStore) {
	t.Run("lista na ordem da carga", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		// ids em ordem alfabética inversa para não confundir ordem de carga com ordem de id
		primeiro := domain.Applicant{ID: "f9dd32d6-c072-44c8-b8fa-3d26bfc14235", Name: "Kamila", Surname: "Obrót", Age: 19, Faculty: domain.FacultyWIMIP}
		segundo := domain.Applicant{ID: "0b6f1e0a-8f5e-4a59-9d4c-2f0a1f7c9e11", Name: "Jan", Surname: "Nowak", Age: 22, Faculty: domain.FacultyWFiIS}
		require.NoError(t, store.BulkCreate(ctx, []domain.Applicant{primeiro, segundo}))

		lista, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, lista, 2)
		assert.Equal(t, primeiro.ID, lista[0].ID)
		assert.Equal(t, segundo.ID, lista[1].ID)
		assert.Equal(t, "Obrót", lista[0].Surname)
		assert.Equal(t, domain.FacultyWIMIP, lista[0].Faculty)
		assert.Nil(t, lista[0].VoteCount)
	})

	t.Run("catalogo vazio", func(t *testing.T) {
		lista, err := newStore(t).List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, lista)
	})

	t.Run("busca por id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := domain.Applicant{ID: ids.NewApplicantID(), Name: "Ola", Surname: "Kowalska", Age: 20, Faculty: domain.FacultyWiEIT}
		require.NoError(t, store.BulkCreate(ctx, []domain.Applicant{a}))

		got, err := store.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Name, got.Name)
		assert.Equal(t, a.Age, got.Age)

		_, err = store.FindByID(ctx, ids.NewApplicantID())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("id repetido", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		a := domain.Applicant{ID: ids.NewApplicantID(), Name: "Ola", Surname: "Kowalska", Age: 20, Faculty: domain.FacultyWiEIT}
		require.NoError(t, store.BulkCreate(ctx, []domain.Applicant{a}))

		err := store.BulkCreate(ctx, []domain.Applicant{a})
		assert.ErrorIs(t, err, domain.ErrInvalidApplicant)
	})
}

// RunVoteStore valida unicidade, consultas e contagens do ledger.
func RunVoteStore(t *testing.T, newStore func(t *testing.T) domain.VoteStore) {
	t.Run("insere e encontra pelo par", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()
		applicant := ids.NewApplicantID()

		vote := newVote(gen, "u1", applicant, domain.VoteYes, base)
		require.NoError(t, store.Insert(ctx, vote))

		got, err := store.FindByPair(ctx, "u1", applicant)
		require.NoError(t, err)
		assert.Equal(t, vote.ID, got.ID)
		assert.Equal(t, domain.VoteYes, got.Type)
		assert.True(t, vote.CreatedAt.Equal(got.CreatedAt))

		_, err = store.FindByPair(ctx, "u2", applicant)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rejeita segundo voto do mesmo par", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()
		applicant := ids.NewApplicantID()

		require.NoError(t, store.Insert(ctx, newVote(gen, "u1", applicant, domain.VoteYes, base)))

		// Mesmo par com outro id e outro tipo continua sendo duplicado.
		err := store.Insert(ctx, newVote(gen, "u1", applicant, domain.VoteNo, base.Add(time.Minute)))
		assert.ErrorIs(t, err, domain.ErrDuplicateVote)

		total, err := store.CountByApplicant(ctx, applicant, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("lista por candidato em ordem cronologica", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()
		applicant := ids.NewApplicantID()

		require.NoError(t, store.Insert(ctx, newVote(gen, "u3", applicant, domain.VoteNo, base.Add(2*time.Minute))))
		require.NoError(t, store.Insert(ctx, newVote(gen, "u1", applicant, domain.VoteYes, base)))
		require.NoError(t, store.Insert(ctx, newVote(gen, "u2", applicant, domain.VoteYes, base.Add(time.Minute))))
		require.NoError(t, store.Insert(ctx, newVote(gen, "u1", ids.NewApplicantID(), domain.VoteYes, base)))

		votes, err := store.ListByApplicant(ctx, applicant)
		require.NoError(t, err)
		require.Len(t, votes, 3)
		assert.Equal(t, domain.VoterID("u1"), votes[0].VoterID)
		assert.Equal(t, domain.VoterID("u2"), votes[1].VoterID)
		assert.Equal(t, domain.VoterID("u3"), votes[2].VoterID)
	})

	t.Run("lista e conta por eleitor", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()

		require.NoError(t, store.Insert(ctx, newVote(gen, "u1", ids.NewApplicantID(), domain.VoteYes, base)))
		require.NoError(t, store.Insert(ctx, newVote(gen, "u1", ids.NewApplicantID(), domain.VoteNo, base)))
		require.NoError(t, store.Insert(ctx, newVote(gen, "u2", ids.NewApplicantID(), domain.VoteNo, base)))

		votes, err := store.ListByVoter(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, votes, 2)

		total, err := store.CountByVoter(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		total, err = store.CountByVoter(ctx, "ninguem")
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("contagem bate com a listagem filtrada", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()
		applicant := ids.NewApplicantID()

		tipos := []domain.VoteType{domain.VoteYes, domain.VoteNo, domain.VoteYes, domain.VoteYes, domain.VoteNo}
		for i, tipo := range tipos {
			voter := domain.VoterID(string(rune('a' + i)))
			require.NoError(t, store.Insert(ctx, newVote(gen, voter, applicant, tipo, base.Add(time.Duration(i)*time.Second))))
		}

		votes, err := store.ListByApplicant(ctx, applicant)
		require.NoError(t, err)

		for _, filtro := range []domain.VoteType{"", domain.VoteYes, domain.VoteNo} {
			esperado := 0
			for _, v := range votes {
				if filtro == "" || v.Type == filtro {
					esperado++
				}
			}
			total, err := store.CountByApplicant(ctx, applicant, filtro)
			require.NoError(t, err)
			assert.Equal(t, int64(esperado), total, "filtro %q", filtro)
		}
	})

	t.Run("candidato sem votos conta zero", func(t *testing.T) {
		total, err := newStore(t).CountByApplicant(context.Background(), ids.NewApplicantID(), domain.VoteYes)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("insercoes concorrentes do mesmo par", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		gen := ids.NewGenerator()
		applicant := ids.NewApplicantID()

		var (
			ok, dup atomic.Int32
			wg      sync.WaitGroup
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Insert(ctx, newVote(gen, "u1", applicant, domain.VoteYes, base))
				switch {
				case err == nil:
					ok.Add(1)
				case assert.ErrorIs(t, err, domain.ErrDuplicateVote):
					dup.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(15), dup.Load())
	})
}
