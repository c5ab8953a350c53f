package voting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
)

func TestTallyContagemBateComHistorico(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()
	ctx := context.Background()

	tipos := []domain.VoteType{domain.VoteYes, domain.VoteNo, domain.VoteNo, domain.VoteYes, domain.VoteYes}
	for i, tipo := range tipos {
		deps.clock.Now = deps.clock.Now.Add(time.Second)
		service = deps.build()
		voter := domain.VoterID(ids.NewULID())
		if _, err := service.CastVote(ctx, voter, applicantA1, tipo); err != nil {
			t.Fatalf("voto %d falhou: %v", i, err)
		}
	}

	history, err := service.History(ctx, applicantA1)
	if err != nil {
		t.Fatalf("erro lendo historico: %v", err)
	}
	if len(history) != len(tipos) {
		t.Fatalf("historico deveria ter %d votos, veio %d", len(tipos), len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.Before(history[i-1].CreatedAt) {
			t.Fatalf("historico fora de ordem cronologica na posicao %d", i)
		}
	}
	for i, v := range history {
		if v.Type != tipos[i] {
			t.Fatalf("posicao %d: esperado %s, veio %s", i, tipos[i], v.Type)
		}
	}

	for _, filtro := range []domain.VoteType{"", domain.VoteYes, domain.VoteNo} {
		var esperado int64
		for _, v := range history {
			if filtro == "" || v.Type == filtro {
				esperado++
			}
		}
		assertCount(t, service, applicantA1, filtro, esperado)
	}
}

func TestTallyCandidatoDesconhecidoContaZero(t *testing.T) {
	service := newServiceDeps().build()
	assertCount(t, service, ids.NewApplicantID(), "", 0)
	assertCount(t, service, "qualquer-coisa", domain.VoteNo, 0)
}

func TestTallyFiltroInvalido(t *testing.T) {
	service := newServiceDeps().build()
	_, err := service.CountForApplicant(context.Background(), applicantA1, "TALVEZ")
	if !errors.Is(err, domain.ErrInvalidVoteType) {
		t.Fatalf("esperava ErrInvalidVoteType, veio %v", err)
	}
}

func TestTallyCandidatosVotadosPeloEleitor(t *testing.T) {
	service := newServiceDeps().build()
	ctx := context.Background()

	if _, err := service.CastVote(ctx, "u1", applicantA1, domain.VoteYes); err != nil {
		t.Fatalf("erro votando: %v", err)
	}
	if _, err := service.CastVote(ctx, "u1", applicantA2, domain.VoteNo); err != nil {
		t.Fatalf("erro votando: %v", err)
	}
	if _, err := service.CastVote(ctx, "u2", applicantA2, domain.VoteNo); err != nil {
		t.Fatalf("erro votando: %v", err)
	}

	votados, err := service.ApplicantsVotedBy(ctx, "u1")
	if err != nil {
		t.Fatalf("erro listando candidatos do eleitor: %v", err)
	}
	set := map[domain.ApplicantID]bool{}
	for _, id := range votados {
		set[id] = true
	}
	if len(set) != 2 || !set[applicantA1] || !set[applicantA2] {
		t.Fatalf("esperava os dois candidatos, veio %v", votados)
	}

	voted, err := service.HasVoted(ctx, "u2", applicantA1)
	if err != nil || voted {
		t.Fatalf("u2 nao votou em A1, veio %v (err=%v)", voted, err)
	}
	total, err := service.CountForVoter(ctx, "ninguem")
	if err != nil || total != 0 {
		t.Fatalf("eleitor sem votos deveria contar zero, veio %d (err=%v)", total, err)
	}
}

func TestLedgerAppendValida(t *testing.T) {
	deps := newServiceDeps()
	ledger := NewLedger(deps.votes, deps.applicants, deps.clock, nil)
	ctx := context.Background()

	_, err := ledger.Append(ctx, domain.Vote{VoterID: "u1", ApplicantID: applicantA1, Type: "X"})
	if !errors.Is(err, domain.ErrInvalidVoteType) {
		t.Fatalf("esperava ErrInvalidVoteType, veio %v", err)
	}

	_, err = ledger.Append(ctx, domain.Vote{VoterID: "u1", ApplicantID: ids.NewApplicantID(), Type: domain.VoteYes})
	if !errors.Is(err, domain.ErrUnknownApplicant) {
		t.Fatalf("esperava ErrUnknownApplicant, veio %v", err)
	}

	vote, err := ledger.Append(ctx, domain.Vote{VoterID: "u1", ApplicantID: applicantA1, Type: domain.VoteYes})
	if err != nil {
		t.Fatalf("append valido falhou: %v", err)
	}
	if vote.ID == "" || vote.Key != domain.VoteKey("u1", applicantA1) || !vote.CreatedAt.Equal(deps.clock.Now) {
		t.Fatalf("append deveria preencher id, chave e horario: %+v", vote)
	}

	_, err = ledger.Append(ctx, domain.Vote{VoterID: "u1", ApplicantID: applicantA1, Type: domain.VoteNo})
	if !errors.Is(err, domain.ErrDuplicateVote) {
		t.Fatalf("esperava ErrDuplicateVote, veio %v", err)
	}

	exists, err := ledger.Exists(ctx, "u1", applicantA1)
	if err != nil || !exists {
		t.Fatalf("exists deveria ser verdadeiro, veio %v (err=%v)", exists, err)
	}
}

func TestTallyNormalizaIDDoCandidato(t *testing.T) {
	deps := newServiceDeps()
	service := deps.build()
	ctx := context.Background()

	if _, err := service.CastVote(ctx, "u1", applicantA1, domain.VoteYes); err != nil {
		t.Fatalf("CastVote retornou erro: %v", err)
	}

	maiusculo := domain.ApplicantID(strings.ToUpper(string(applicantA1)))

	assertCount(t, service, maiusculo, "", 1)
	assertCount(t, service, maiusculo, domain.VoteYes, 1)

	votou, err := service.HasVoted(ctx, "u1", maiusculo)
	if err != nil {
		t.Fatalf("HasVoted retornou erro: %v", err)
	}
	if !votou {
		t.Fatal("has_voted deveria valer para o id em maiusculas")
	}
	if _, err := service.CastVote(ctx, "u1", maiusculo, domain.VoteNo); !errors.Is(err, domain.ErrDuplicateVote) {
		t.Fatalf("esperava ErrDuplicateVote, veio %v", err)
	}

	historico, err := service.History(ctx, maiusculo)
	if err != nil {
		t.Fatalf("History retornou erro: %v", err)
	}
	if len(historico) != 1 {
		t.Fatalf("historico deveria ter 1 voto, veio %d", len(historico))
	}

	// id fora do formato UUID é leitura tolerante: zero e falso, sem erro
	assertCount(t, service, "nao-e-uuid", "", 0)
	votou, err = service.HasVoted(ctx, "u1", "nao-e-uuid")
	if err != nil || votou {
		t.Fatalf("id invalido deveria dar false sem erro, veio %v %v", votou, err)
	}
	historico, err = service.History(ctx, "nao-e-uuid")
	if err != nil || len(historico) != 0 {
		t.Fatalf("id invalido deveria dar historico vazio, veio %v %v", historico, err)
	}
}
