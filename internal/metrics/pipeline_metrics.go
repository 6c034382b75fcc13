package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics содержит метрики конвейера обработки заказов.
type PipelineMetrics struct {
	// Счётчики жизненного цикла заказа
	ordersSubmitted prometheus.Counter
	ordersApproved  prometheus.Counter
	ordersRejected  prometheus.Counter

	// Счётчики инфраструктуры шины
	publishFailures prometheus.Counter
	deadLettered    prometheus.Counter

	// Уведомления по исходу проверки
	notificationsRendered *prometheus.CounterVec

	// Гистограмма времени проверки склада
	checkDuration prometheus.Histogram
}

// NewPipelineMetrics создаёт метрики конвейера в default registerer.
// Повторная регистрация переиспользует уже существующие коллекторы,
// поэтому конструктор безопасно вызывать из нескольких мест.
func NewPipelineMetrics() *PipelineMetrics {
	return newPipelineMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPipelineMetricsWithRegisterer(registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PipelineMetrics{
		ordersSubmitted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Total number of orders accepted by the intake stage",
		}),
		ordersApproved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_approved_total",
			Help: "Total number of orders approved by the inventory check stage",
		}),
		ordersRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected by the inventory check stage",
		}),
		publishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Total number of event publish attempts reported failed by the bus",
		}),
		deadLettered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "messages_dead_lettered_total",
			Help: "Total number of messages forwarded to the dead letter topic",
		}),
		notificationsRendered: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "notifications_rendered_total",
			Help: "Total number of rendered customer notifications grouped by order status",
		}, []string{"status"}),
		checkDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "inventory_check_duration_seconds",
			Help:    "Duration of inventory check message handling in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
	}
}

// OrderSubmitted учитывает принятый заказ.
func (m *PipelineMetrics) OrderSubmitted() {
	if m == nil {
		return
	}
	m.ordersSubmitted.Inc()
}

// OrderDecided учитывает исход проверки склада.
func (m *PipelineMetrics) OrderDecided(approved bool) {
	if m == nil {
		return
	}
	if approved {
		m.ordersApproved.Inc()
	} else {
		m.ordersRejected.Inc()
	}
}

// PublishFailed учитывает асинхронно зафиксированную ошибку доставки.
func (m *PipelineMetrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// MessageDeadLettered учитывает сообщение, отправленное в DLQ.
func (m *PipelineMetrics) MessageDeadLettered() {
	if m == nil {
		return
	}
	m.deadLettered.Inc()
}

// NotificationRendered учитывает отрисованное уведомление.
func (m *PipelineMetrics) NotificationRendered(status string) {
	if m == nil {
		return
	}
	m.notificationsRendered.WithLabelValues(status).Inc()
}

// ObserveCheckDuration фиксирует длительность обработки сообщения проверки склада.
func (m *PipelineMetrics) ObserveCheckDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.checkDuration.Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
