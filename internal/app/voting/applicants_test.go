package voting

import (
	"context"
	"errors"
	"testing"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/storage/memory"
)

func TestListApplicantsComVotosPreservaOrdemDoCatalogo(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()
	ctx := context.Background()

	for _, voter := range []domain.VoterID{"u1", "u2"} {
		if _, err := service.CastVote(ctx, voter, applicantA1, domain.VoteYes); err != nil {
			t.Fatalf("erro votando: %v", err)
		}
	}

	applicants, err := service.ListApplicants(ctx, true)
	if err != nil {
		t.Fatalf("erro listando candidatos: %v", err)
	}
	if len(applicants) != 2 {
		t.Fatalf("esperava 2 candidatos, veio %d", len(applicants))
	}

	want := []struct {
		id    domain.ApplicantID
		votes int64
	}{{applicantA1, 2}, {applicantA2, 0}}
	for i, w := range want {
		if applicants[i].ID != w.id {
			t.Fatalf("posicao %d: esperado %s, veio %s", i, w.id, applicants[i].ID)
		}
		if applicants[i].VoteCount == nil || *applicants[i].VoteCount != w.votes {
			t.Fatalf("candidato %s: esperado %d votos, veio %v", w.id, w.votes, applicants[i].VoteCount)
		}
	}
}

func TestListApplicantsSemVotosNaoConsultaTally(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()

	applicants, err := service.ListApplicants(context.Background(), false)
	if err != nil {
		t.Fatalf("erro listando candidatos: %v", err)
	}
	for _, a := range applicants {
		if a.VoteCount != nil {
			t.Fatalf("candidato %s nao deveria trazer contagem", a.ID)
		}
	}
}

func TestListApplicantsCatalogoGrandeComConcorrenciaLimitada(t *testing.T) {
	deps := newServiceDeps()
	deps.applicants = memory.NewApplicantStore()
	service := deps.build()
	ctx := context.Background()

	lote := make([]domain.Applicant, 40)
	for i := range lote {
		lote[i] = domain.Applicant{Name: "Nome", Surname: "Sobrenome", Age: 20 + i, Faculty: domain.FacultyWiEIT}
	}
	created, err := service.applicants.CreateApplicants(ctx, lote)
	if err != nil {
		t.Fatalf("erro criando candidatos: %v", err)
	}
	if _, err := service.CastVote(ctx, "u1", created[39].ID, domain.VoteNo); err != nil {
		t.Fatalf("erro votando: %v", err)
	}

	applicants, err := service.ListApplicants(ctx, true)
	if err != nil {
		t.Fatalf("erro listando candidatos: %v", err)
	}
	for i, a := range applicants {
		if a.ID != created[i].ID {
			t.Fatalf("ordem do catalogo quebrada na posicao %d", i)
		}
	}
	if *applicants[39].VoteCount != 1 || *applicants[0].VoteCount != 0 {
		t.Fatal("contagens nao bateram com os votos")
	}
}

func TestGetApplicantByID(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()
	ctx := context.Background()

	got, err := service.GetApplicantByID(ctx, applicantA1)
	if err != nil || got == nil {
		t.Fatalf("esperava encontrar candidato, veio %v (err=%v)", got, err)
	}
	if got.Surname != "Obrót" || got.Faculty.FullName() != "Wydział Inżynierii Metali i Informatyki Przemysłowej" {
		t.Fatalf("candidato incorreto: %+v", got)
	}

	for _, id := range []domain.ApplicantID{"5b0c7f5e-1111-4a2b-9c3d-000000000000", "nao-e-uuid"} {
		got, err = service.GetApplicantByID(ctx, id)
		if err != nil {
			t.Fatalf("ausencia nao e erro, veio %v", err)
		}
		if got != nil {
			t.Fatalf("esperava nil para %s, veio %+v", id, got)
		}
	}
}

func TestCreateApplicantsValida(t *testing.T) {
	valido := domain.Applicant{Name: "Ola", Surname: "Kowalska", Age: 21, Faculty: domain.FacultyWFiIS}

	cases := []struct {
		name   string
		mutate func(a *domain.Applicant)
	}{
		{"nome vazio", func(a *domain.Applicant) { a.Name = "  " }},
		{"sobrenome vazio", func(a *domain.Applicant) { a.Surname = "" }},
		{"idade zero", func(a *domain.Applicant) { a.Age = 0 }},
		{"faculdade desconhecida", func(a *domain.Applicant) { a.Faculty = "WEAIiIB" }},
		{"id invalido", func(a *domain.Applicant) { a.ID = "123" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := newServiceDeps()
			deps.applicants = memory.NewApplicantStore()
			service := deps.build()

			a := valido
			tc.mutate(&a)
			_, err := service.applicants.CreateApplicants(context.Background(), []domain.Applicant{valido, a})
			if !errors.Is(err, domain.ErrInvalidApplicant) {
				t.Fatalf("esperava ErrInvalidApplicant, veio %v", err)
			}

			lista, _ := deps.applicants.List(context.Background())
			if len(lista) != 0 {
				t.Fatalf("lote invalido nao pode gravar nada, gravou %d", len(lista))
			}
		})
	}
}

func TestCreateApplicantsAtribuiIDs(t *testing.T) {
	deps := newServiceDeps()
	deps.applicants = memory.NewApplicantStore()
	service := deps.build()

	created, err := service.applicants.CreateApplicants(context.Background(), []domain.Applicant{
		{Name: "Ola", Surname: "Kowalska", Age: 21, Faculty: domain.FacultyWFiIS},
		{ID: "F9DD32D6-C072-44C8-B8FA-3D26BFC14235", Name: "Kamila", Surname: "Obrót", Age: 19, Faculty: domain.FacultyWIMIP},
	})
	if err != nil {
		t.Fatalf("erro criando candidatos: %v", err)
	}
	if created[0].ID == "" {
		t.Fatal("candidato sem id deveria receber um UUID")
	}
	if created[1].ID != applicantA1 {
		t.Fatalf("id informado deveria ser normalizado, veio %s", created[1].ID)
	}
}

func TestPanoramaUsaContadores(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()
	ctx := context.Background()

	deps.contador.valores[CounterKeyApplicantTotal(applicantA1)] = 7
	deps.contador.valores[CounterKeyApplicantType(applicantA1, domain.VoteYes)] = 5
	deps.contador.valores[CounterKeyApplicantType(applicantA1, domain.VoteNo)] = 2

	tallies, err := service.Panorama(ctx)
	if err != nil {
		t.Fatalf("erro no panorama: %v", err)
	}
	if len(tallies) != 2 {
		t.Fatalf("esperava 2 linhas, veio %d", len(tallies))
	}
	if tallies[0] != (domain.ApplicantTally{ApplicantID: applicantA1, Total: 7, Yes: 5, No: 2}) {
		t.Fatalf("panorama do primeiro candidato incorreto: %+v", tallies[0])
	}
	if tallies[1].Total != 0 {
		t.Fatalf("candidato sem contador deveria ter zero, veio %d", tallies[1].Total)
	}
}

func TestPanoramaCaiParaLedgerQuandoContadorFalha(t *testing.T) {
	deps := newServiceDeps()
	deps.contador.falha = errors.New("redis fora")
	service := deps.build()
	ctx := context.Background()

	if _, err := service.CastVote(ctx, "u1", applicantA2, domain.VoteNo); err != nil {
		t.Fatalf("erro votando: %v", err)
	}

	tallies, err := service.Panorama(ctx)
	if err != nil {
		t.Fatalf("erro no panorama: %v", err)
	}
	if tallies[1] != (domain.ApplicantTally{ApplicantID: applicantA2, Total: 1, Yes: 0, No: 1}) {
		t.Fatalf("panorama do ledger incorreto: %+v", tallies[1])
	}
}
