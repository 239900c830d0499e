package storage

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gossip-results/results"
)

// PrometheusExporter exposes per-trial and per-network-size metrics
type PrometheusExporter struct {
	registry *prometheus.Registry

	// per trial
	trialsCounter *prometheus.CounterVec
	consensusHist *prometheus.HistogramVec
	gossipHist    *prometheus.HistogramVec
	messagesHist  *prometheus.HistogramVec

	// per finalized bucket
	neighbourGauge    *prometheus.GaugeVec
	bucketTrialsGauge *prometheus.GaugeVec
	hitRateGauge      *prometheus.GaugeVec
	missRateGauge     *prometheus.GaugeVec
	consensusGauge    *prometheus.GaugeVec
	gossipGauge       *prometheus.GaugeVec
	reachedGauge      *prometheus.GaugeVec
	notReachedGauge   *prometheus.GaugeVec
	messagesGauge     *prometheus.GaugeVec
}

// NewPrometheusExporter creates a new Prometheus exporter on its own registry
func NewPrometheusExporter() *PrometheusExporter {
	bucketGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "gossip_results_" + name, Help: help},
			[]string{"network_size"},
		)
	}

	exporter := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		trialsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gossip_results_trials_total",
				Help: "Total number of trials read from the results log",
			},
			[]string{"network_size", "consensus"},
		),
		consensusHist: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gossip_results_trial_consensus_time_ms",
				Help:    "Time for consensus of trials that reached it, in milliseconds",
				Buckets: prometheus.ExponentialBuckets(10, 2, 14), // 10ms to ~80s
			},
			[]string{"network_size"},
		),
		gossipHist: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gossip_results_trial_gossip_time_ms",
				Help:    "Time for gossip to end, in milliseconds",
				Buckets: prometheus.ExponentialBuckets(10, 2, 14),
			},
			[]string{"network_size"},
		),
		messagesHist: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gossip_results_trial_messages_sent",
				Help:    "Total messages sent during a trial",
				Buckets: prometheus.ExponentialBuckets(1, 4, 12),
			},
			[]string{"network_size"},
		),
		neighbourGauge:    bucketGauge("neighbour_list_size", "Neighbour list size used for the network size"),
		bucketTrialsGauge: bucketGauge("bucket_trials", "Number of trials aggregated for the network size"),
		hitRateGauge:      bucketGauge("consensus_hit_rate", "Fraction of trials that reached consensus"),
		missRateGauge:     bucketGauge("consensus_miss_rate", "Fraction of trials that did not reach consensus"),
		consensusGauge:    bucketGauge("mean_consensus_time_ms", "Mean time for consensus over trials that reached it"),
		gossipGauge:       bucketGauge("mean_gossip_time_ms", "Mean time for gossip to end"),
		reachedGauge:      bucketGauge("mean_nodes_reached", "Mean number of nodes reached"),
		notReachedGauge:   bucketGauge("mean_nodes_not_reached", "Mean number of nodes not reached"),
		messagesGauge:     bucketGauge("mean_messages_sent", "Mean total messages sent"),
	}

	exporter.registry.MustRegister(
		exporter.trialsCounter,
		exporter.consensusHist,
		exporter.gossipHist,
		exporter.messagesHist,
		exporter.neighbourGauge,
		exporter.bucketTrialsGauge,
		exporter.hitRateGauge,
		exporter.missRateGauge,
		exporter.consensusGauge,
		exporter.gossipGauge,
		exporter.reachedGauge,
		exporter.notReachedGauge,
		exporter.messagesGauge,
	)

	return exporter
}

// Registry returns the registry holding the exporter's metrics
func (pe *PrometheusExporter) Registry() *prometheus.Registry {
	return pe.registry
}

// Handler serves the exporter's metrics
func (pe *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(pe.registry, promhttp.HandlerOpts{})
}

// ObserveRecord records a single trial
func (pe *PrometheusExporter) ObserveRecord(rec results.Record) {
	size := strconv.Itoa(rec.NetworkSize)

	outcome := "not_reached"
	if rec.Consensus.Reached {
		outcome = "reached"
		pe.consensusHist.WithLabelValues(size).Observe(float64(rec.Consensus.TimeMillis))
	}
	pe.trialsCounter.WithLabelValues(size, outcome).Inc()
	pe.gossipHist.WithLabelValues(size).Observe(float64(rec.GossipTimeMillis))
	pe.messagesHist.WithLabelValues(size).Observe(float64(rec.MessagesSent))
}

// PublishBuckets sets the per-network-size gauges from finalized buckets
func (pe *PrometheusExporter) PublishBuckets(buckets []*results.StatBucket) {
	for _, b := range buckets {
		size := strconv.Itoa(b.NetworkSize)
		pe.neighbourGauge.WithLabelValues(size).Set(float64(b.NeighbourListSize))
		pe.bucketTrialsGauge.WithLabelValues(size).Set(float64(b.Trials))
		pe.hitRateGauge.WithLabelValues(size).Set(b.ConsensusHitRate)
		pe.missRateGauge.WithLabelValues(size).Set(b.ConsensusMissRate)
		pe.consensusGauge.WithLabelValues(size).Set(b.MeanConsensusTime)
		pe.gossipGauge.WithLabelValues(size).Set(b.MeanGossipTime)
		pe.reachedGauge.WithLabelValues(size).Set(b.MeanNodesReached)
		pe.notReachedGauge.WithLabelValues(size).Set(b.MeanNodesNotReached)
		pe.messagesGauge.WithLabelValues(size).Set(b.MeanMessagesSent)
	}
}

// WriteTextfile dumps every metric in the text exposition format, for the
// node exporter textfile collector
func (pe *PrometheusExporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pe.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
