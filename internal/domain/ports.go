package domain

import (
	"context"
	"time"
)

// ApplicantStore é o catálogo persistido; escrito apenas pela carga administrativa.
type ApplicantStore interface {
	BulkCreate(ctx context.Context, applicants []Applicant) error
	List(ctx context.Context) ([]Applicant, error)
	FindByID(ctx context.Context, id ApplicantID) (Applicant, error)
}

// VoteStore é o ledger persistido. Insert deve rejeitar atomicamente um segundo voto
// com a mesma Key devolvendo ErrDuplicateVote.
type VoteStore interface {
	Insert(ctx context.Context, vote Vote) error
	FindByPair(ctx context.Context, voter VoterID, applicant ApplicantID) (Vote, error)
	ListByApplicant(ctx context.Context, applicant ApplicantID) ([]Vote, error)
	ListByVoter(ctx context.Context, voter VoterID) ([]Vote, error)
	CountByApplicant(ctx context.Context, applicant ApplicantID, voteType VoteType) (int64, error)
	CountByVoter(ctx context.Context, voter VoterID) (int64, error)
}

// Contador é a projeção rápida das contagens. Escritas multi-chave são atômicas.
type Contador interface {
	Incrementar(ctx context.Context, chaves []string, delta int64) error
	Sobrescrever(ctx context.Context, valores map[string]int64) error
	ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error)
}

type Fila interface {
	PublicarVoto(ctx context.Context, recibo VoteReceipt) error
	ConsumirVotos(ctx context.Context, handler func(context.Context, VoteReceipt) error) error
}

type Antifraude interface {
	Validar(ctx context.Context, vote Vote) error
}

// KeyLocker serializa escritores de uma mesma chave; o unlock devolvido é idempotente.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Clock interface {
	Agora() time.Time
}

type VotingService interface {
	CastVote(ctx context.Context, voter VoterID, applicant ApplicantID, voteType VoteType) (VoteReceipt, error)
	ListApplicants(ctx context.Context, includeVotes bool) ([]Applicant, error)
	GetApplicantByID(ctx context.Context, id ApplicantID) (*Applicant, error)
	CountForApplicant(ctx context.Context, id ApplicantID, voteType VoteType) (int64, error)
	CountForVoter(ctx context.Context, voter VoterID) (int64, error)
	ApplicantsVotedBy(ctx context.Context, voter VoterID) ([]ApplicantID, error)
	HasVoted(ctx context.Context, voter VoterID, applicant ApplicantID) (bool, error)
	History(ctx context.Context, id ApplicantID) ([]Vote, error)
	Panorama(ctx context.Context) ([]ApplicantTally, error)
}
