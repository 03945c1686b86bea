package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pixelevo/internal/model"
)

// Collector exports generation statistics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	generations   prometheus.Counter
	targetChanges prometheus.Counter
	mutations     prometheus.Counter
	bestFitness   prometheus.Gauge
	meanFitness   prometheus.Gauge
	worstFitness  prometheus.Gauge
	targetChannel *prometheus.GaugeVec
	tickSeconds   prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelevo_generations_total",
			Help: "Generations evaluated.",
		}),
		targetChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelevo_target_changes_total",
			Help: "Writes to the target color.",
		}),
		mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelevo_mutations_total",
			Help: "Middle-band cells mutated.",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelevo_best_fitness",
			Help: "Best (lowest) fitness of the last generation.",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelevo_mean_fitness",
			Help: "Mean fitness of the last generation.",
		}),
		worstFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelevo_worst_fitness",
			Help: "Worst (highest) fitness of the last generation.",
		}),
		targetChannel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pixelevo_target_channel",
			Help: "Current target color by channel.",
		}, []string{"channel"}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixelevo_tick_seconds",
			Help:    "Wall time of one generation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	c.registry.MustRegister(
		c.generations,
		c.targetChanges,
		c.mutations,
		c.bestFitness,
		c.meanFitness,
		c.worstFitness,
		c.targetChannel,
		c.tickSeconds,
	)
	return c
}

func (c *Collector) ObserveGeneration(diag model.GenerationDiagnostics, elapsed time.Duration) {
	c.generations.Inc()
	c.mutations.Add(float64(diag.Mutations))
	c.bestFitness.Set(float64(diag.BestFitness))
	c.meanFitness.Set(diag.MeanFitness)
	c.worstFitness.Set(float64(diag.WorstFitness))
	c.tickSeconds.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveTarget(target model.RGB) {
	c.targetChanges.Inc()
	c.SetTarget(target)
}

// SetTarget records the channels without counting a change.
func (c *Collector) SetTarget(target model.RGB) {
	c.targetChannel.WithLabelValues("r").Set(float64(target.R))
	c.targetChannel.WithLabelValues("g").Set(float64(target.G))
	c.targetChannel.WithLabelValues("b").Set(float64(target.B))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
