// Package metrics exposes the server's Prometheus instrumentation: counters
// for packets received/sent/dropped by kind, and gauges for directory
// occupancy. Shaped after USA-RedDragon-DMRHub's internal/metrics package,
// scaled down to what a single relay node needs to observe.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the server records. It is created once per
// process and threaded through the server explicitly, never accessed via
// a package global.
type Registry struct {
	PacketsReceivedTotal *prometheus.CounterVec
	PacketsSentTotal     *prometheus.CounterVec
	PacketsDroppedTotal  *prometheus.CounterVec

	Users       prometheus.Gauge
	Peers       prometheus.Gauge
	Channels    prometheus.Gauge
	IDCacheSize prometheus.Gauge
}

// NewRegistry builds and registers the metric set against a fresh
// prometheus.Registry, so repeated calls (as in tests) never collide with
// the global default registry.
func NewRegistry() (*Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Registry{
		PacketsReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duckchat_packets_received_total",
			Help: "Total datagrams received, by packet kind.",
		}, []string{"kind"}),
		PacketsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duckchat_packets_sent_total",
			Help: "Total datagrams sent, by packet kind.",
		}, []string{"kind"}),
		PacketsDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duckchat_packets_dropped_total",
			Help: "Total datagrams dropped, by reason.",
		}, []string{"reason"}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duckchat_users",
			Help: "Currently logged-in users.",
		}),
		Peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duckchat_peers",
			Help: "Currently known peer servers.",
		}),
		Channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duckchat_channels",
			Help: "Currently known channels.",
		}),
		IDCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duckchat_id_cache_size",
			Help: "Current occupancy of the message-ID loop-suppression cache.",
		}),
	}
	reg.MustRegister(
		m.PacketsReceivedTotal,
		m.PacketsSentTotal,
		m.PacketsDroppedTotal,
		m.Users,
		m.Peers,
		m.Channels,
		m.IDCacheSize,
	)
	return m, reg
}
