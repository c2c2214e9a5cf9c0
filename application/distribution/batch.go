package distribution

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"drive-distribution/domain/distribution"
)

var tracer = otel.Tracer("drive-distribution/application/distribution")

// runBatch executes a batch and aligns its results with the batch's keys.
// Transport failures and correlation failures are returned as errors.
func runBatch(ctx context.Context, client distribution.DriveClient, batch *distribution.Batch, label string) ([]distribution.BatchResult, error) {
	ctx, span := tracer.Start(ctx, "Distribution.Batch."+label, trace.WithAttributes(
		attribute.Int("batch.requests", batch.Len()),
	))
	defer span.End()

	results, err := client.ExecuteBatch(ctx, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to execute %s batch: %w", label, err)
	}

	aligned, err := distribution.Reconcile(batch.Tokens(), results)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to reconcile %s batch: %w", label, err)
	}

	span.SetAttributes(attribute.Int("batch.failed", countFailed(aligned)))

	return aligned, nil
}

func countFailed(results []distribution.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}
