package domain

import "errors"

var (
	ErrNotFound         = errors.New("registro nao encontrado")
	ErrUnknownApplicant = errors.New("candidato nao encontrado")
	ErrInvalidVoteType  = errors.New("tipo de voto invalido")
	ErrInvalidApplicant = errors.New("candidato invalido")
	ErrDuplicateVote    = errors.New("eleitor ja votou neste candidato")
	ErrStoreUnavailable = errors.New("armazenamento indisponivel")
	ErrAuthentication   = errors.New("eleitor nao autenticado")
)
