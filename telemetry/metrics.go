// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry exposes build-loop metrics. Recording is fire and
// forget; nothing in the build path depends on a metric being observed.
package telemetry

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	blocksBuilt *prometheus.CounterVec
	blockTxs    *prometheus.CounterVec
	blockBlobs  *prometheus.CounterVec
	gasUsed     *prometheus.CounterVec
	simGasUsed  *prometheus.CounterVec

	lastBuiltSlot prometheus.Gauge

	fillTime     metric.Averager
	finalizeTime metric.Averager
}

func NewMetrics(r *prometheus.Registry) (*Metrics, error) {
	fillTime, err := metric.NewAverager(
		"builder_fill_time",
		"time spent filling a block with orders",
		r,
	)
	if err != nil {
		return nil, err
	}
	finalizeTime, err := metric.NewAverager(
		"builder_finalize_time",
		"time spent computing the root and sealing a block",
		r,
	)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		blocksBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Name:      "blocks_built",
			Help:      "number of blocks built",
		}, []string{"builder"}),
		blockTxs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Name:      "block_txs",
			Help:      "transactions included in built blocks",
		}, []string{"builder"}),
		blockBlobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Name:      "block_blobs",
			Help:      "blob sidecars carried by built blocks",
		}, []string{"builder"}),
		gasUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Name:      "gas_used",
			Help:      "gas used by built blocks",
		}, []string{"builder"}),
		simGasUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "builder",
			Name:      "sim_gas_used",
			Help:      "gas used across all simulated commits, including excluded orders",
		}, []string{"builder"}),
		lastBuiltSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "builder",
			Name:      "last_built_slot",
			Help:      "timestamp of the slot most recently built for",
		}),
		fillTime:     fillTime,
		finalizeTime: finalizeTime,
	}

	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.blocksBuilt),
		r.Register(m.blockTxs),
		r.Register(m.blockBlobs),
		r.Register(m.gasUsed),
		r.Register(m.simGasUsed),
		r.Register(m.lastBuiltSlot),
	)
	return m, errs.Err
}

// AddBuiltBlockMetrics records one completed build attempt. Safe to call
// on a nil receiver so builds can run unmetered.
func (m *Metrics) AddBuiltBlockMetrics(
	fillTime time.Duration,
	finalizeTime time.Duration,
	txs int,
	blobs int,
	gasUsed uint64,
	simGasUsed uint64,
	builderName string,
	slotTimestamp uint64,
) {
	if m == nil {
		return
	}
	m.blocksBuilt.WithLabelValues(builderName).Inc()
	m.blockTxs.WithLabelValues(builderName).Add(float64(txs))
	m.blockBlobs.WithLabelValues(builderName).Add(float64(blobs))
	m.gasUsed.WithLabelValues(builderName).Add(float64(gasUsed))
	m.simGasUsed.WithLabelValues(builderName).Add(float64(simGasUsed))
	m.lastBuiltSlot.Set(float64(slotTimestamp))
	m.fillTime.Observe(float64(fillTime))
	m.finalizeTime.Observe(float64(finalizeTime))
}
