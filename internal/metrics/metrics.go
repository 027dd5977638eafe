package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerchat_messages_received_total",
			Help: "Total number of inbound payloads accepted by the handler, by declared type.",
		},
		[]string{"type"},
	)
	messagesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_messages_dropped_total",
			Help: "Total number of inbound payloads dropped for unresolvable sender info.",
		},
	)
	dedupHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_dedup_hits_total",
			Help: "Total number of inbound payloads that matched an already-stored message id.",
		},
	)
	messagesTrimmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_messages_trimmed_total",
			Help: "Total number of messages deleted by the retention trimmer.",
		},
	)
	notifyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_notify_failures_total",
			Help: "Total number of failed user-notification deliveries.",
		},
	)
	outboxSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_outbox_sent_total",
			Help: "Total number of outgoing payloads delivered to the relay.",
		},
	)
	outboxFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peerchat_outbox_failed_total",
			Help: "Total number of outgoing payloads that failed to send.",
		},
	)
	relayConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "peerchat_relay_connected",
			Help: "Whether the relay websocket connection is currently established.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		messagesReceivedTotal,
		messagesDroppedTotal,
		dedupHitsTotal,
		messagesTrimmedTotal,
		notifyFailuresTotal,
		outboxSentTotal,
		outboxFailedTotal,
		relayConnected,
	)
}

func IncReceived(msgType string) {
	messagesReceivedTotal.WithLabelValues(msgType).Inc()
}

func IncDropped() {
	messagesDroppedTotal.Inc()
}

func IncDedupHit() {
	dedupHitsTotal.Inc()
}

func AddTrimmed(n int) {
	messagesTrimmedTotal.Add(float64(n))
}

func IncNotifyFailure() {
	notifyFailuresTotal.Inc()
}

func IncOutboxSent() {
	outboxSentTotal.Inc()
}

func IncOutboxFailed() {
	outboxFailedTotal.Inc()
}

func SetRelayConnected(up bool) {
	if up {
		relayConnected.Set(1)
	} else {
		relayConnected.Set(0)
	}
}
