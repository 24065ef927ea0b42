package monitoring

import (
	"syncwatch/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements the services.MetricsRecorder and
// transport.BroadcastMetrics hooks.
type PrometheusCollector struct {
	roomsActive           prometheus.Gauge
	roomsCreatedTotal     prometheus.Counter
	participantsConnected prometheus.Gauge
	messagesTotal         prometheus.Counter
	reactionsTotal        prometheus.Counter
	votesTotal            prometheus.Counter
	deltasBroadcastTotal  prometheus.Counter
	deltasDroppedTotal    prometheus.Counter
}

// NewPrometheusCollector registers the collectors on reg. Passing a
// dedicated registry keeps tests from colliding on the default one.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncwatch_rooms_active",
			Help: "Number of live rooms",
		}),
		roomsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_rooms_created_total",
			Help: "Total number of rooms ever created",
		}),
		participantsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncwatch_participants_connected",
			Help: "Number of currently connected participants",
		}),
		messagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_messages_total",
			Help: "Total chat messages appended",
		}),
		reactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_reactions_total",
			Help: "Total reactions sent",
		}),
		votesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_poll_votes_total",
			Help: "Total poll votes cast",
		}),
		deltasBroadcastTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_deltas_broadcast_total",
			Help: "Total state deltas fanned out to connections",
		}),
		deltasDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncwatch_deltas_dropped_total",
			Help: "Deltas dropped because a connection's send buffer was full",
		}),
	}
}

func (p *PrometheusCollector) RoomCreated() {
	p.roomsActive.Inc()
	p.roomsCreatedTotal.Inc()
}

func (p *PrometheusCollector) RoomClosed() {
	p.roomsActive.Dec()
}

func (p *PrometheusCollector) ParticipantJoined(domain.RoomID) {
	p.participantsConnected.Inc()
}

func (p *PrometheusCollector) ParticipantLeft(domain.RoomID) {
	p.participantsConnected.Dec()
}

func (p *PrometheusCollector) MessageAppended(domain.RoomID) {
	p.messagesTotal.Inc()
}

func (p *PrometheusCollector) ReactionSent(domain.RoomID) {
	p.reactionsTotal.Inc()
}

func (p *PrometheusCollector) VoteCast(domain.RoomID) {
	p.votesTotal.Inc()
}

func (p *PrometheusCollector) DeltaBroadcast(domain.RoomID) {
	p.deltasBroadcastTotal.Inc()
}

func (p *PrometheusCollector) DeltaDropped(domain.RoomID) {
	p.deltasDroppedTotal.Inc()
}
