// Package metrics exposes Prometheus counters of the telemetry link.
package metrics

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/thermlink/pkg/framework"
)

// Registry holds all thermlink collectors.
var Registry = prometheus.NewRegistry()

var (
	// ZonesRead is the number of zones available in the last poll.
	ZonesRead = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thermlink_zones_read",
		Help: "Number of thermal zones readable in the last poll",
	})
	// LastSample is when the zones were last polled.
	LastSample = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thermlink_last_sample_timestamp_seconds",
		Help: "Unix time of the last thermal zone poll",
	})
	// Temperature is the last sampled or received temperature per sensor label.
	Temperature = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "thermlink_temperature_celsius",
		Help: "Last temperature seen per sensor label",
	}, []string{"label"})
	// FramesSent counts frames written to the link.
	FramesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thermlink_frames_sent_total",
		Help: "Frames written to the link",
	})
	// LinkWriteErrors counts failed frame writes.
	LinkWriteErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thermlink_link_write_errors_total",
		Help: "Frames that failed to be written to the link",
	})
	// FramesReceived counts successfully decoded frames.
	FramesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thermlink_frames_received_total",
		Help: "Frames decoded by the receiver",
	})
	// FramesMalformed counts discarded lines per decode error kind.
	FramesMalformed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thermlink_frames_malformed_total",
		Help: "Lines discarded because they could not be decoded",
	}, []string{"kind"})
	// StaleEpisodes counts transitions into the stale state per cause.
	StaleEpisodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thermlink_stale_episodes_total",
		Help: "Transitions of the receiver into the stale state",
	}, []string{"cause"})
	// MirrorPublished counts readings mirrored to MQTT.
	MirrorPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thermlink_mirror_published_total",
		Help: "Readings published to the MQTT mirror",
	})
)

func init() {
	Registry.MustRegister(
		ZonesRead,
		LastSample,
		Temperature,
		FramesSent,
		LinkWriteErrors,
		FramesReceived,
		FramesMalformed,
		StaleEpisodes,
		MirrorPublished,
	)
}

// Handler exposes the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Server serves /metrics until the context is canceled.
type Server struct {
	Addr string
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "metrics"
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("serving metrics on %s", s.Addr)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// AddToLoop implements framework.LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	if s.Addr != "" {
		loop.AddRunnable(s)
	}
}
