package telemetry

import (
	"context"

	"github.com/poinmhs/backend/internal/domain/claim"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ImportCounts is the outcome of one bulk import run
type ImportCounts struct {
	Inserted         int
	SkippedDuplicate int
	SkippedEmpty     int
	Failed           int
	Cancelled        bool
}

// PointsMetrics records claim workflow and import counters
type PointsMetrics struct {
	submitted  metric.Int64Counter
	reviewed   metric.Int64Counter
	credited   metric.Int64Counter
	importRuns metric.Int64Counter
	importRows metric.Int64Counter
}

// NewPointsMetrics creates the instruments on meter
func NewPointsMetrics(meter metric.Meter) (*PointsMetrics, error) {
	m := &PointsMetrics{}
	var err error

	if m.submitted, err = meter.Int64Counter("poinmhs.claims.submitted",
		metric.WithDescription("Claims submitted by students")); err != nil {
		return nil, err
	}
	if m.reviewed, err = meter.Int64Counter("poinmhs.claims.reviewed",
		metric.WithDescription("Claim review decisions by resulting status")); err != nil {
		return nil, err
	}
	if m.credited, err = meter.Int64Counter("poinmhs.points.credited",
		metric.WithDescription("Points credited to student totals on approval")); err != nil {
		return nil, err
	}
	if m.importRuns, err = meter.Int64Counter("poinmhs.import.runs",
		metric.WithDescription("Bulk import runs by entity")); err != nil {
		return nil, err
	}
	if m.importRows, err = meter.Int64Counter("poinmhs.import.rows",
		metric.WithDescription("Bulk import rows by entity and outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordClaimSubmitted counts a new submission
func (m *PointsMetrics) RecordClaimSubmitted(ctx context.Context) {
	m.submitted.Add(ctx, 1)
}

// RecordClaimReviewed counts a review decision and the points it credited
func (m *PointsMetrics) RecordClaimReviewed(ctx context.Context, to claim.Status, points int) {
	m.reviewed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
	if points > 0 {
		m.credited.Add(ctx, int64(points))
	}
}

// RecordImport counts one import run and its rows per outcome
func (m *PointsMetrics) RecordImport(ctx context.Context, entity string, counts ImportCounts) {
	m.importRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.Bool("cancelled", counts.Cancelled)))

	for outcome, n := range map[string]int{
		"inserted":          counts.Inserted,
		"skipped_duplicate": counts.SkippedDuplicate,
		"skipped_empty":     counts.SkippedEmpty,
		"failed":            counts.Failed,
	} {
		if n == 0 {
			continue
		}
		m.importRows.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("outcome", outcome)))
	}
}
