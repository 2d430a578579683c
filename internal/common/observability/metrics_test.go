package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_SpansAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := tracetest.NewSpanRecorder()

	obs := New("matching-test", WithRegisterer(reg), WithSpanProcessor(recorder))
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "rank-caregivers", attribute.String("jobId", "job-1"))
	obs.RecordRanking(ctx, 12, 4, 3*time.Millisecond)
	obs.RecordJobProcessed(ctx, "rank-caregivers", "completed")
	obs.RecordJobDuration(ctx, "rank-caregivers", 5*time.Millisecond, "completed")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "rank-caregivers", ended[0].Name())

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"matching_rankings_total",
		"matching_ranking_duration_milliseconds",
		"jobs_processed_total",
		"jobs_duration_milliseconds",
	} {
		assert.True(t, names[want], want)
	}
	for name := range names {
		assert.NotContains(t, name, ".", name)
	}
}

func TestNewNoop(t *testing.T) {
	obs := NewNoop()
	ctx, span := obs.StartSpan(context.Background(), "noop")
	obs.RecordRanking(ctx, 1, 0, time.Millisecond)
	span.End()
	obs.Shutdown()
}
