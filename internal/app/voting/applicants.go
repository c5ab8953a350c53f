package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
	"github.com/marcelojr/votacao-candidatos/internal/platform/metrics"
)

const defaultTallyConcurrency = 8

// ApplicantService junta catálogo e contagens preservando a ordem do catálogo.
type ApplicantService struct {
	applicants  domain.ApplicantStore
	tally       *Tally
	contador    domain.Contador
	concurrency int
}

// NewApplicantService aceita contador nulo; nesse caso o panorama é calculado direto do ledger.
func NewApplicantService(applicants domain.ApplicantStore, tally *Tally, contador domain.Contador, concurrency int) *ApplicantService {
	if concurrency <= 0 {
		concurrency = defaultTallyConcurrency
	}
	return &ApplicantService{
		applicants:  applicants,
		tally:       tally,
		contador:    contador,
		concurrency: concurrency,
	}
}

func (s *ApplicantService) ListApplicants(ctx context.Context, includeVotes bool) ([]domain.Applicant, error) {
	applicants, err := s.applicants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalogo: listar: %w", err)
	}
	if !includeVotes || len(applicants) == 0 {
		return applicants, nil
	}

	inicio := time.Now()
	defer func() {
		metrics.ObserveTallyDuration(time.Since(inicio).Seconds())
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range applicants {
		g.Go(func() error {
			total, err := s.tally.CountForApplicant(gctx, applicants[i].ID, "")
			if err != nil {
				return err
			}
			applicants[i].VoteCount = &total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return applicants, nil
}

// GetApplicantByID devolve nil sem erro quando o candidato não existe.
func (s *ApplicantService) GetApplicantByID(ctx context.Context, id domain.ApplicantID) (*domain.Applicant, error) {
	parsed, err := ids.ParseApplicantID(string(id))
	if err != nil {
		return nil, nil
	}
	applicant, err := s.applicants.FindByID(ctx, parsed)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogo: buscar: %w", err)
	}
	return &applicant, nil
}

// CreateApplicants valida e grava um lote do catálogo. Ids ausentes recebem um UUID novo.
func (s *ApplicantService) CreateApplicants(ctx context.Context, applicants []domain.Applicant) ([]domain.Applicant, error) {
	created := make([]domain.Applicant, len(applicants))
	for i, a := range applicants {
		normalizado, err := normalizeApplicant(a)
		if err != nil {
			return nil, fmt.Errorf("candidato %d: %w", i, err)
		}
		created[i] = normalizado
	}

	if err := s.applicants.BulkCreate(ctx, created); err != nil {
		return nil, fmt.Errorf("catalogo: gravar lote: %w", err)
	}
	return created, nil
}

// Panorama lê a projeção do Redis; sem contador, ou com ele fora, conta direto do ledger.
func (s *ApplicantService) Panorama(ctx context.Context) ([]domain.ApplicantTally, error) {
	applicants, err := s.applicants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalogo: listar: %w", err)
	}

	if s.contador != nil {
		tallies, err := s.panoramaFromCounters(ctx, applicants)
		if err == nil {
			return tallies, nil
		}
		logger.Warn("panorama: contador indisponivel, usando ledger", "err", err)
	}
	return s.panoramaFromLedger(ctx, applicants)
}

func (s *ApplicantService) panoramaFromCounters(ctx context.Context, applicants []domain.Applicant) ([]domain.ApplicantTally, error) {
	chaves := make([]string, 0, len(applicants)*3)
	for _, a := range applicants {
		chaves = append(chaves, CounterKeysForApplicant(a.ID)...)
	}

	valores, err := s.contador.ObterTodos(ctx, chaves)
	if err != nil {
		return nil, err
	}

	tallies := make([]domain.ApplicantTally, len(applicants))
	for i, a := range applicants {
		tallies[i] = domain.ApplicantTally{
			ApplicantID: a.ID,
			Total:       valores[CounterKeyApplicantTotal(a.ID)],
			Yes:         valores[CounterKeyApplicantType(a.ID, domain.VoteYes)],
			No:          valores[CounterKeyApplicantType(a.ID, domain.VoteNo)],
		}
	}
	return tallies, nil
}

func (s *ApplicantService) panoramaFromLedger(ctx context.Context, applicants []domain.Applicant) ([]domain.ApplicantTally, error) {
	tallies := make([]domain.ApplicantTally, len(applicants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, a := range applicants {
		g.Go(func() error {
			yes, err := s.tally.CountForApplicant(gctx, a.ID, domain.VoteYes)
			if err != nil {
				return err
			}
			no, err := s.tally.CountForApplicant(gctx, a.ID, domain.VoteNo)
			if err != nil {
				return err
			}
			tallies[i] = domain.ApplicantTally{ApplicantID: a.ID, Total: yes + no, Yes: yes, No: no}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tallies, nil
}

func normalizeApplicant(a domain.Applicant) (domain.Applicant, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Surname = strings.TrimSpace(a.Surname)

	switch {
	case a.Name == "" || a.Surname == "":
		return domain.Applicant{}, fmt.Errorf("%w: nome e sobrenome obrigatorios", domain.ErrInvalidApplicant)
	case a.Age <= 0:
		return domain.Applicant{}, fmt.Errorf("%w: idade deve ser positiva", domain.ErrInvalidApplicant)
	case !a.Faculty.Valid():
		return domain.Applicant{}, fmt.Errorf("%w: faculdade desconhecida %q", domain.ErrInvalidApplicant, a.Faculty)
	}

	if a.ID == "" {
		a.ID = ids.NewApplicantID()
		return a, nil
	}
	id, err := ids.ParseApplicantID(string(a.ID))
	if err != nil {
		return domain.Applicant{}, fmt.Errorf("%w: id %q nao e um UUID", domain.ErrInvalidApplicant, a.ID)
	}
	a.ID = id
	a.VoteCount = nil
	return a, nil
}
