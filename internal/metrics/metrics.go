/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"time"

	"asset-lifecycle-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asset_lifecycle"

// Metrics exports batch job outcomes.
type Metrics struct {
	JobRuns     *prometheus.CounterVec
	JobItems    *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	LastSuccess *prometheus.GaugeVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Batch job runs by outcome.",
		}, []string{"job", "outcome"}),
		JobItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_total",
			Help:      "Items processed by batch jobs, by outcome.",
		}, []string{"job", "outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of batch job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"job"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last run without failed items.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.JobRuns, m.JobItems, m.JobDuration, m.LastSuccess)
	return m
}

// Run outcomes that never reach the batch itself.
const (
	OutcomeLocked    = "locked"
	OutcomeLockError = "lock_error"
)

// ObserveRun records one finished batch run.
func (m *Metrics) ObserveRun(job string, result models.BatchResult, elapsed time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	outcome := "success"
	if result.HasFailures() {
		outcome = "failure"
	} else {
		m.LastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	m.JobItems.WithLabelValues(job, string(models.OutcomeSucceeded)).Add(float64(result.Succeeded()))
	m.JobItems.WithLabelValues(job, string(models.OutcomeSkipped)).Add(float64(result.Skipped()))
	m.JobItems.WithLabelValues(job, string(models.OutcomeFailed)).Add(float64(result.Failed()))
}

// ObserveNotRun records a firing that was skipped before the batch started.
func (m *Metrics) ObserveNotRun(job, outcome string) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}
