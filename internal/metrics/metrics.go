// metrics - Prometheus-метрики сервиса: события аутентификации,
// исходы каскада списания и длительность HTTP-запросов.
//
// Все методы безопасны для nil-получателя: сервис можно собрать без метрик.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gearguard"

// События аутентификации (метка event).
const (
	EventLogin          = "login"
	EventRefresh        = "refresh"
	EventLogout         = "logout"
	EventChangePassword = "change_password"
	EventRegister       = "register"
)

// Результаты (метка result).
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultReuse   = "reuse_detected"
)

type Metrics struct {
	authEvents   *prometheus.CounterVec
	cascades     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New регистрирует метрики в reg (обычно prometheus.DefaultRegisterer).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		authEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by type and result.",
		}, []string{"event", "result"}),
		cascades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrap_cascade_total",
			Help:      "Scrap cascade outcomes after a request reached SCRAP.",
		}, []string{"outcome"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) AuthEvent(event, result string) {
	if m == nil {
		return
	}

	m.authEvents.WithLabelValues(event, result).Inc()
}

func (m *Metrics) Cascade(outcome string) {
	if m == nil {
		return
	}

	m.cascades.WithLabelValues(outcome).Inc()
}

// ObserveHTTP пишет длительность запроса. route - шаблон маршрута chi.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
