package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifyflow_events_enqueued_total",
		Help: "Total number of events placed on the processing queue.",
	})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifyflow_events_processed_total",
		Help: "Total number of events fully processed by the engine.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifyflow_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	TemplatesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyflow_templates_matched_total",
		Help: "Total number of template matches, labelled by template ID.",
	}, []string{"template_id"})

	NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifyflow_notifications_suppressed_total",
		Help: "Total number of matched notifications vetoed by recipient preferences.",
	})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyflow_notifications_created_total",
		Help: "Total number of notifications dispatched, labelled by final priority.",
	}, []string{"priority"})

	ChannelDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyflow_channel_deliveries_total",
		Help: "Total number of channel send attempts, labelled by channel and status.",
	}, []string{"channel", "status"})

	ChannelDeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifyflow_channel_delivery_duration_ms",
		Help:    "Channel send latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"channel"})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notifyflow_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyflow_store_errors_total",
		Help: "Total number of failed store operations, labelled by operation.",
	}, []string{"op"})

	TemplatePanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifyflow_template_panics_total",
		Help: "Total number of recovered panics while handling a matched template.",
	}, []string{"template_id"})

	NotificationsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifyflow_notifications_pruned_total",
		Help: "Total number of read notifications removed by the retention job.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifyflow_queue_utilization_ratio",
		Help: "Current event queue utilization (0 to 1).",
	})
)
