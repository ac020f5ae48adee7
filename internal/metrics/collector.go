// Package metrics exports Sensibo pod state and API request statistics as
// Prometheus metrics.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/sensibo"
)

// DefaultScrapeTimeout bounds the device listing done on each scrape.
const DefaultScrapeTimeout = 10 * time.Second

// Lister is the part of *sensibo.Client the pod collector needs.
type Lister interface {
	ListDevices(ctx context.Context) ([]sensibo.Device, error)
}

// PodCollector lists the pods on every scrape and exports their state.
type PodCollector struct {
	client  Lister
	timeout time.Duration

	// mu serializes the reset and repopulation of the vectors between
	// concurrent scrapes.
	mu sync.Mutex

	alive       *prometheus.GaugeVec
	powerOn     *prometheus.GaugeVec
	target      *prometheus.GaugeVec
	mode        *prometheus.GaugeVec
	fanLevel    *prometheus.GaugeVec
	lastSeen    *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
	success     prometheus.Gauge
}

func NewPodCollector(client Lister) *PodCollector {
	labels := []string{"pod_id", "room"}
	return &PodCollector{
		client:  client,
		timeout: DefaultScrapeTimeout,
		alive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_alive",
			Help: "Pod connected to the cloud (1=online, 0=offline)",
		}, labels),
		powerOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_power_on",
			Help: "AC power state (1=on, 0=off)",
		}, labels),
		target: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_target_temperature",
			Help: "Target temperature in the pod's configured unit",
		}, append(labels, "unit")),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_mode",
			Help: "Current AC mode (1 for the active mode)",
		}, append(labels, "mode")),
		fanLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_fan_level",
			Help: "Current fan level (1 for the active level)",
		}, append(labels, "fan_level")),
		lastSeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartac_pod_last_seen_seconds",
			Help: "Seconds since the pod last reported to the cloud",
		}, labels),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartac_last_success_timestamp_seconds",
			Help: "Last successful scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartac_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

// WithTimeout sets the per-scrape timeout.
func (c *PodCollector) WithTimeout(timeout time.Duration) *PodCollector {
	c.timeout = timeout
	return c
}

func (c *PodCollector) Describe(ch chan<- *prometheus.Desc) {
	c.alive.Describe(ch)
	c.powerOn.Describe(ch)
	c.target.Describe(ch)
	c.mode.Describe(ch)
	c.fanLevel.Describe(ch)
	c.lastSeen.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *PodCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	devices, err := c.client.ListDevices(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		logging.Warn("Pod scrape failed", zap.Error(err))
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.alive.Reset()
	c.powerOn.Reset()
	c.target.Reset()
	c.mode.Reset()
	c.fanLevel.Reset()
	c.lastSeen.Reset()

	for _, device := range devices {
		labels := prometheus.Labels{
			"pod_id": device.ID,
			"room":   device.Name(),
		}
		state := device.ACState

		c.alive.With(labels).Set(boolToFloat(device.ConnectionStatus.IsAlive))
		c.powerOn.With(labels).Set(boolToFloat(state.IsPowerOn))
		c.lastSeen.With(labels).Set(float64(device.ConnectionStatus.LastSeenSecondsAgo))
		c.target.With(withLabel(labels, "unit", state.TempUnit)).Set(float64(state.TempDegree))

		for _, m := range sensibo.Modes() {
			c.mode.With(withLabel(labels, "mode", string(m))).Set(boolToFloat(state.ACMode == m))
		}
		for _, f := range sensibo.FanLevels() {
			c.fanLevel.With(withLabel(labels, "fan_level", string(f))).Set(boolToFloat(state.FanLevel == f))
		}
	}

	c.success.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))
	c.collectAll(ch)
}

func (c *PodCollector) collectAll(ch chan<- prometheus.Metric) {
	c.alive.Collect(ch)
	c.powerOn.Collect(ch)
	c.target.Collect(ch)
	c.mode.Collect(ch)
	c.fanLevel.Collect(ch)
	c.lastSeen.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}

func withLabel(labels prometheus.Labels, name, value string) prometheus.Labels {
	out := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out[name] = value
	return out
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
