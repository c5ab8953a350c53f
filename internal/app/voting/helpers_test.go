package voting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/clock"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
	"github.com/marcelojr/votacao-candidatos/internal/platform/lock"
	"github.com/marcelojr/votacao-candidatos/internal/platform/storage/memory"
)

const (
	applicantA1 domain.ApplicantID = "f9dd32d6-c072-44c8-b8fa-3d26bfc14235"
	applicantA2 domain.ApplicantID = "3c1e5a8f-2b7d-4e0a-9f61-7a2c4d8b1e90"
)

type serviceDependencies struct {
	applicants *memory.ApplicantStore
	votes      domain.VoteStore
	memVotes   *memory.VoteStore
	contador   *inMemoryContador
	queue      *recordingQueue
	locker     domain.KeyLocker
	antifraude domain.Antifraude
	clock      clock.Fixed
	opts       GatewayOptions
}

func newServiceDeps() *serviceDependencies {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	votes := memory.NewVoteStore()

	return &serviceDependencies{
		applicants: memory.NewApplicantStore(
			domain.Applicant{ID: applicantA1, Name: "Kamila", Surname: "Obrót", Age: 19, Faculty: domain.FacultyWIMIP},
			domain.Applicant{ID: applicantA2, Name: "Jan", Surname: "Nowak", Age: 22, Faculty: domain.FacultyWFiIS},
		),
		votes:      votes,
		memVotes:   votes,
		contador:   newInMemoryContador(),
		queue:      newRecordingQueue(),
		locker:     lock.NewKeyedMutex(),
		antifraude: antifraudeNoop{},
		clock:      clock.Fixed{Now: base},
		opts:       GatewayOptions{MaxRetries: 3, RetryInterval: time.Millisecond},
	}
}

func (d *serviceDependencies) build() *Service {
	ledger := NewLedger(d.votes, d.applicants, d.clock, ids.NewGenerator())
	tally := NewTally(ledger)
	gateway := NewGateway(ledger, tally, d.locker, d.antifraude, d.queue, d.opts)
	return NewService(ledger, tally, gateway, NewApplicantService(d.applicants, tally, d.contador, 4))
}

type antifraudeNoop struct{}

func (antifraudeNoop) Validar(context.Context, domain.Vote) error { return nil }

type antifraudeFunc func(domain.Vote) error

func (f antifraudeFunc) Validar(_ context.Context, v domain.Vote) error { return f(v) }

type inMemoryContador struct {
	mu      sync.Mutex
	valores map[string]int64
	falha   error
}

func newInMemoryContador() *inMemoryContador {
	return &inMemoryContador{valores: make(map[string]int64)}
}

func (c *inMemoryContador) Incrementar(_ context.Context, chaves []string, delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.falha != nil {
		return c.falha
	}
	for _, chave := range chaves {
		c.valores[chave] += delta
	}
	return nil
}

func (c *inMemoryContador) Sobrescrever(_ context.Context, valores map[string]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.falha != nil {
		return c.falha
	}
	for chave, valor := range valores {
		c.valores[chave] = valor
	}
	return nil
}

func (c *inMemoryContador) ObterTodos(_ context.Context, chaves []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.falha != nil {
		return nil, c.falha
	}
	result := make(map[string]int64)
	for _, chave := range chaves {
		result[chave] = c.valores[chave]
	}
	return result, nil
}

type recordingQueue struct {
	mu      sync.Mutex
	recibos []domain.VoteReceipt
	falha   error
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{}
}

func (r *recordingQueue) PublicarVoto(_ context.Context, recibo domain.VoteReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.falha != nil {
		return r.falha
	}
	r.recibos = append(r.recibos, recibo)
	return nil
}

func (r *recordingQueue) ConsumirVotos(ctx context.Context, handler func(context.Context, domain.VoteReceipt) error) error {
	for _, recibo := range r.Drain() {
		if err := handler(ctx, recibo); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordingQueue) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recibos)
}

func (r *recordingQueue) Drain() []domain.VoteReceipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	recibos := r.recibos
	r.recibos = nil
	return recibos
}

// flakyVoteStore falha as primeiras gravações com ErrStoreUnavailable.
// Com gravaAntes, a gravação acontece e só a resposta se perde.
type flakyVoteStore struct {
	*memory.VoteStore
	mu         sync.Mutex
	falhas     int
	gravaAntes bool
	chamadas   int
}

func (f *flakyVoteStore) Insert(ctx context.Context, vote domain.Vote) error {
	f.mu.Lock()
	f.chamadas++
	falhar := f.falhas > 0
	if falhar {
		f.falhas--
	}
	f.mu.Unlock()

	if !falhar {
		return f.VoteStore.Insert(ctx, vote)
	}
	if f.gravaAntes {
		if err := f.VoteStore.Insert(ctx, vote); err != nil {
			return err
		}
	}
	return errStoreDown
}

var errStoreDown = errors.Join(domain.ErrStoreUnavailable, errors.New("conexao recusada"))

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, string) (func(), error) { return nil, l.err }
