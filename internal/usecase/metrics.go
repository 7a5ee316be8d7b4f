package usecase

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeVerified     = "verified"
	outcomeUnverified   = "unverified"
	outcomeManualReview = "manual_review"
	outcomeError        = "error"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "satverify",
		Name:      "verifications_total",
		Help:      "Verification pipeline runs by outcome.",
	}, []string{"outcome"})

	verificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "satverify",
		Name:      "verification_duration_seconds",
		Help:      "End-to-end verification latency.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

func observeVerification(outcome string, elapsed time.Duration) {
	verificationsTotal.WithLabelValues(outcome).Inc()
	verificationDuration.Observe(elapsed.Seconds())
}

// MetricsSummary represents aggregated verification insights.
type MetricsSummary struct {
	TotalRequests       int64   `json:"total_requests"`
	VerifiedRequests    int64   `json:"verified_requests"`
	VerificationRate    float64 `json:"verification_rate"`
	AverageMatchedShare float64 `json:"average_matched_share"`
	AverageLatencyMs    float64 `json:"average_latency_ms"`
}

// GetMetricsSummary aggregates verification metrics from persisted records.
func (uc *VerificationUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRequests:       aggregation.TotalCount,
		VerifiedRequests:    aggregation.VerifiedCount,
		AverageMatchedShare: aggregation.AverageMatchedShare,
		AverageLatencyMs:    aggregation.AverageLatencyMs,
	}

	if aggregation.TotalCount > 0 {
		summary.VerificationRate = float64(aggregation.VerifiedCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
