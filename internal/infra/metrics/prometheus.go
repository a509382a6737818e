package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// APIMetrics gerencia métricas relacionadas à API
type APIMetrics struct {
	requestCounter    *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	responseSize      *prometheus.SummaryVec
	activeRequests    *prometheus.GaugeVec
	errorsTotal       *prometheus.CounterVec
	characterOps      *prometheus.CounterVec
	migrationsApplied prometheus.Counter
	seededCharacters  prometheus.Gauge
	startupDuration   prometheus.Gauge
	cacheHitRatio     *prometheus.GaugeVec
}

// NewRegistry cria um registro com os coletores de runtime do Go e do processo
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewAPIMetrics cria e registra métricas do prometheus no registrador informado
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	factory := promauto.With(reg)

	return &APIMetrics{
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sw_characters_requests_total",
				Help: "Total number of HTTP requests by path, method, and status code",
			},
			[]string{"path", "method", "status"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sw_characters_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		responseSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "sw_characters_response_size_bytes",
				Help:       "HTTP response size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"path", "method"},
		),

		activeRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sw_characters_active_requests",
				Help: "Number of in-flight requests being processed",
			},
			[]string{"path", "method"},
		),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sw_characters_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"path", "method", "error_type"},
		),

		characterOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sw_characters_operations_total",
				Help: "Character operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),

		migrationsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sw_characters_migrations_applied_total",
				Help: "Number of schema migrations applied by this process",
			},
		),

		seededCharacters: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sw_characters_seeded_records",
				Help: "Number of default records inserted at startup",
			},
		),

		startupDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sw_characters_startup_duration_seconds",
				Help: "Time spent migrating and seeding the database at startup",
			},
		),

		cacheHitRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sw_characters_cache_hit_ratio",
				Help: "Cache hit ratio (0.0 to 1.0)",
			},
			[]string{"cache_type"},
		),
	}
}

// RequestStarted registra o início de uma requisição
func (m *APIMetrics) RequestStarted(path, method string) {
	m.activeRequests.WithLabelValues(path, method).Inc()
}

// RequestCompleted registra a conclusão de uma requisição
func (m *APIMetrics) RequestCompleted(path, method, status string, duration time.Duration, responseSize int) {
	m.requestCounter.WithLabelValues(path, method, status).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
	m.responseSize.WithLabelValues(path, method).Observe(float64(responseSize))
	m.activeRequests.WithLabelValues(path, method).Dec()
}

// RequestError registra um erro de requisição
func (m *APIMetrics) RequestError(path, method, errorType string) {
	m.errorsTotal.WithLabelValues(path, method, errorType).Inc()
}

// CharacterOperation registra o resultado de uma operação sobre personagens
func (m *APIMetrics) CharacterOperation(operation, outcome string) {
	m.characterOps.WithLabelValues(operation, outcome).Inc()
}

// MigrationApplied registra uma migração aplicada
func (m *APIMetrics) MigrationApplied() {
	m.migrationsApplied.Inc()
}

// Seeded registra quantos registros padrão foram inseridos
func (m *APIMetrics) Seeded(count int) {
	m.seededCharacters.Set(float64(count))
}

// StartupCompleted registra a duração da inicialização do banco
func (m *APIMetrics) StartupCompleted(duration time.Duration) {
	m.startupDuration.Set(duration.Seconds())
}

// UpdateCacheHitRatio atualiza a taxa de acertos do cache
func (m *APIMetrics) UpdateCacheHitRatio(cacheType string, hitRatio float64) {
	m.cacheHitRatio.WithLabelValues(cacheType).Set(hitRatio)
}
