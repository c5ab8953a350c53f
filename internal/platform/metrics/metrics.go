package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applicant_vote_requests_total",
		Help: "Total de requisicoes de voto recebidas por status",
	}, []string{"status"})

	voteCastDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "applicant_vote_cast_duration_seconds",
		Help:    "Tempo para registrar um voto no ledger",
		Buckets: prometheus.DefBuckets,
	})

	storeRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applicant_vote_store_retries_total",
		Help: "Tentativas repetidas de gravar voto apos indisponibilidade do armazenamento",
	})

	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applicant_vote_events_published_total",
		Help: "Recibos de voto publicados na fila de projecao",
	}, []string{"result"})

	eventsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applicant_vote_events_processed_total",
		Help: "Total de recibos processados pelo worker",
	})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "applicant_vote_processing_duration_seconds",
		Help:    "Tempo para processar um recibo no worker",
		Buckets: prometheus.DefBuckets,
	})

	tallyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "applicant_tally_duration_seconds",
		Help:    "Tempo para montar a listagem de candidatos com contagens",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveVoteRequest(status string) {
	voteRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveCastDuration(seconds float64) {
	voteCastDuration.Observe(seconds)
}

func IncStoreRetry() {
	storeRetriesTotal.Inc()
}

func ObserveEventPublished(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	eventsPublishedTotal.WithLabelValues(result).Inc()
}

func IncEventProcessed() {
	eventsProcessedTotal.Inc()
}

func ObserveProcessingDuration(seconds float64) {
	processingDuration.Observe(seconds)
}

func ObserveTallyDuration(seconds float64) {
	tallyDuration.Observe(seconds)
}
