// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o serviço de votação.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/antifraude"
	"github.com/marcelojr/votacao-candidatos/internal/platform/metrics"
)

// API empacota handlers HTTP ligados ao serviço de votação e ao logger.
type API struct {
	service domain.VotingService
	logger  *slog.Logger
	auth    *Authenticator
}

type Option func(*API)

// WithAuthenticator exige bearer token no POST /votes e no GET /me; o sub vira o eleitor.
func WithAuthenticator(auth *Authenticator) Option {
	return func(a *API) {
		a.auth = auth
	}
}

func New(service domain.VotingService, logger *slog.Logger, opts ...Option) *API {
	a := &API{service: service, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler monta o roteador completo com os middlewares padrão.
func (a *API) Handler() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.logger))
	a.Register(r)
	return r
}

func (a *API) Register(r chi.Router) {
	r.Get("/healthz", a.handleHealthz)
	r.Get("/panorama", a.panorama)
	r.With(a.auth.Middleware).Get("/me", a.usuarioAtual)

	r.Route("/applicants", func(r chi.Router) {
		r.Get("/", a.listarCandidatos)
		r.Get("/{id}", a.obterCandidato)
	})

	r.Route("/votes", func(r chi.Router) {
		r.With(a.auth.Middleware).Post("/", a.registrarVoto)
		r.Get("/applicants/{id}", a.contarVotosCandidato)
		r.Get("/applicants/{id}/history", a.historicoCandidato)
		r.Get("/users/{id}", a.votosDoEleitor)
		r.Get("/users/{id}/applicants/{applicant_id}", a.eleitorVotou)
	})
}

// usuarioAtual devolve o usuário do token; sem autenticação configurada não há identidade.
func (a *API) usuarioAtual(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		responderErro(w, domain.ErrAuthentication)
		return
	}
	responderJSON(w, http.StatusOK, user)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type applicantResponse struct {
	ID          domain.ApplicantID `json:"id"`
	Name        string             `json:"name"`
	Surname     string             `json:"surname"`
	Age         int                `json:"age"`
	Faculty     domain.Faculty     `json:"faculty"`
	FacultyName string             `json:"faculty_name"`
	VoteCount   *int64             `json:"vote_count,omitempty"`
}

func toApplicantResponse(a domain.Applicant) applicantResponse {
	return applicantResponse{
		ID:          a.ID,
		Name:        a.Name,
		Surname:     a.Surname,
		Age:         a.Age,
		Faculty:     a.Faculty,
		FacultyName: a.Faculty.FullName(),
		VoteCount:   a.VoteCount,
	}
}

func (a *API) listarCandidatos(w http.ResponseWriter, r *http.Request) {
	includeVotes := true
	if raw := r.URL.Query().Get("include_votes"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "include_votes invalido", http.StatusBadRequest)
			return
		}
		includeVotes = v
	}

	applicants, err := a.service.ListApplicants(r.Context(), includeVotes)
	if err != nil {
		a.logger.Error("erro ao listar candidatos", "err", err)
		responderErro(w, err)
		return
	}

	resultado := make([]applicantResponse, len(applicants))
	for i, applicant := range applicants {
		resultado[i] = toApplicantResponse(applicant)
	}
	responderJSON(w, http.StatusOK, resultado)
}

func (a *API) obterCandidato(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicantID(chi.URLParam(r, "id"))

	applicant, err := a.service.GetApplicantByID(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao buscar candidato", "err", err, "applicant", id)
		responderErro(w, err)
		return
	}
	if applicant == nil {
		responderErro(w, domain.ErrUnknownApplicant)
		return
	}

	responderJSON(w, http.StatusOK, toApplicantResponse(*applicant))
}

type votoRequest struct {
	VoterID     string `json:"voter_id"`
	ApplicantID string `json:"applicant_id"`
	VoteType    string `json:"vote_type"`
}

func (a *API) registrarVoto(w http.ResponseWriter, r *http.Request) {
	var req votoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveVoteRequest("invalid_payload")
		a.logger.Warn("payload invalido ao registrar voto", "err", err)
		http.Error(w, "payload invalido", http.StatusBadRequest)
		return
	}

	voter := domain.VoterID(req.VoterID)
	if autenticado, ok := VoterFromContext(r.Context()); ok {
		// com token, o corpo só pode repetir o próprio eleitor
		if voter != "" && voter != autenticado {
			metrics.ObserveVoteRequest(statusFromError(domain.ErrAuthentication))
			a.logger.Warn("eleitor do corpo difere do token", "voter", voter, "token_voter", autenticado)
			responderErro(w, domain.ErrAuthentication)
			return
		}
		voter = autenticado
	}

	voteType, err := domain.ParseVoteType(req.VoteType)
	if err != nil {
		metrics.ObserveVoteRequest(statusFromError(err))
		responderErro(w, err)
		return
	}

	applicant := domain.ApplicantID(req.ApplicantID)
	receipt, err := a.service.CastVote(r.Context(), voter, applicant, voteType)
	if err != nil {
		status := statusFromError(err)
		metrics.ObserveVoteRequest(status)
		a.logger.Warn("falha ao registrar voto", "err", err, "voter", voter, "applicant", applicant, "status", status)
		responderErro(w, err)
		return
	}

	metrics.ObserveVoteRequest("created")
	responderJSON(w, http.StatusCreated, receipt)
	a.logger.Info("voto registrado", "vote", receipt.VoteID, "voter", voter, "applicant", receipt.ApplicantID)
}

type contagemResponse struct {
	ApplicantID domain.ApplicantID `json:"applicant_id"`
	VoteType    domain.VoteType    `json:"vote_type,omitempty"`
	Count       int64              `json:"count"`
}

func (a *API) contarVotosCandidato(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicantID(chi.URLParam(r, "id"))

	var voteType domain.VoteType
	if raw := r.URL.Query().Get("vote_type"); raw != "" {
		parsed, err := domain.ParseVoteType(raw)
		if err != nil {
			responderErro(w, err)
			return
		}
		voteType = parsed
	}

	total, err := a.service.CountForApplicant(r.Context(), id, voteType)
	if err != nil {
		a.logger.Error("erro ao contar votos do candidato", "err", err, "applicant", id)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, contagemResponse{ApplicantID: id, VoteType: voteType, Count: total})
}

func (a *API) historicoCandidato(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicantID(chi.URLParam(r, "id"))

	votes, err := a.service.History(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao ler historico", "err", err, "applicant", id)
		responderErro(w, err)
		return
	}
	if votes == nil {
		votes = []domain.Vote{}
	}

	responderJSON(w, http.StatusOK, votes)
}

type eleitorResponse struct {
	VoterID    domain.VoterID       `json:"voter_id"`
	Count      int64                `json:"count"`
	Applicants []domain.ApplicantID `json:"applicants"`
}

func (a *API) votosDoEleitor(w http.ResponseWriter, r *http.Request) {
	voter := domain.VoterID(chi.URLParam(r, "id"))

	total, err := a.service.CountForVoter(r.Context(), voter)
	if err != nil {
		a.logger.Error("erro ao contar votos do eleitor", "err", err, "voter", voter)
		responderErro(w, err)
		return
	}
	applicants, err := a.service.ApplicantsVotedBy(r.Context(), voter)
	if err != nil {
		a.logger.Error("erro ao listar candidatos do eleitor", "err", err, "voter", voter)
		responderErro(w, err)
		return
	}
	if applicants == nil {
		applicants = []domain.ApplicantID{}
	}

	responderJSON(w, http.StatusOK, eleitorResponse{VoterID: voter, Count: total, Applicants: applicants})
}

func (a *API) eleitorVotou(w http.ResponseWriter, r *http.Request) {
	voter := domain.VoterID(chi.URLParam(r, "id"))
	applicant := domain.ApplicantID(chi.URLParam(r, "applicant_id"))

	voted, err := a.service.HasVoted(r.Context(), voter, applicant)
	if err != nil {
		a.logger.Error("erro ao consultar voto", "err", err, "voter", voter, "applicant", applicant)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, map[string]bool{"has_voted": voted})
}

func (a *API) panorama(w http.ResponseWriter, r *http.Request) {
	tallies, err := a.service.Panorama(r.Context())
	if err != nil {
		a.logger.Error("erro ao montar panorama", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, tallies)
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func responderErro(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrUnknownApplicant):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidVoteType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateVote):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
		if wait := antifraude.RetryAfter(err); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	responderJSON(w, status, map[string]string{"erro": err.Error()})
}

func statusFromError(err error) string {
	switch {
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, domain.ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, domain.ErrUnknownApplicant):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidVoteType):
		return "invalid"
	case errors.Is(err, domain.ErrAuthentication):
		return "unauthorized"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
