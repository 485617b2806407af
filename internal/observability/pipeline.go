package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Pipeline holds the metric instruments for the recording and
// transcription pipeline. A nil *Pipeline is valid and records nothing,
// so components never need to null-check.
type Pipeline struct {
	recordingsStarted   metric.Int64Counter
	recordingsCompleted metric.Int64Counter
	recordingsFailed    metric.Int64Counter
	recordingDuration   metric.Float64Histogram
	queueItems          metric.Int64Counter
	transcriptions      metric.Int64Counter
	transcribeDuration  metric.Float64Histogram
	errorsTotal         metric.Int64Counter
}

// NewPipeline creates the pipeline instruments on the global meter.
func NewPipeline() (*Pipeline, error) {
	meter := otel.Meter("scribe/pipeline")
	p := &Pipeline{}
	var err error

	if p.recordingsStarted, err = meter.Int64Counter("recording.started",
		metric.WithDescription("Recording sessions started")); err != nil {
		return nil, fmt.Errorf("creating recording.started counter: %w", err)
	}
	if p.recordingsCompleted, err = meter.Int64Counter("recording.completed",
		metric.WithDescription("Recording sessions stopped and flushed")); err != nil {
		return nil, fmt.Errorf("creating recording.completed counter: %w", err)
	}
	if p.recordingsFailed, err = meter.Int64Counter("recording.failed",
		metric.WithDescription("Recording sessions that failed to flush")); err != nil {
		return nil, fmt.Errorf("creating recording.failed counter: %w", err)
	}
	if p.recordingDuration, err = meter.Float64Histogram("recording.duration",
		metric.WithDescription("Recording session length in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating recording.duration histogram: %w", err)
	}
	if p.queueItems, err = meter.Int64Counter("queue.items",
		metric.WithDescription("Queue items processed, by outcome")); err != nil {
		return nil, fmt.Errorf("creating queue.items counter: %w", err)
	}
	if p.transcriptions, err = meter.Int64Counter("transcription.total",
		metric.WithDescription("Transcription dispatches, by outcome")); err != nil {
		return nil, fmt.Errorf("creating transcription.total counter: %w", err)
	}
	if p.transcribeDuration, err = meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Transcription dispatch duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}
	if p.errorsTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Pipeline errors by code")); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return p, nil
}

// RecordingStarted records a session start.
func (p *Pipeline) RecordingStarted(ctx context.Context) {
	if p == nil {
		return
	}
	p.recordingsStarted.Add(ctx, 1)
}

// RecordingCompleted records a successfully flushed session.
func (p *Pipeline) RecordingCompleted(ctx context.Context, d time.Duration) {
	if p == nil {
		return
	}
	p.recordingsCompleted.Add(ctx, 1)
	p.recordingDuration.Record(ctx, d.Seconds())
}

// RecordingFailed records a session that could not be flushed.
func (p *Pipeline) RecordingFailed(ctx context.Context) {
	if p == nil {
		return
	}
	p.recordingsFailed.Add(ctx, 1)
}

// QueueItemProcessed records one queue item run with its outcome status.
func (p *Pipeline) QueueItemProcessed(ctx context.Context, status string) {
	if p == nil {
		return
	}
	p.queueItems.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// TranscriptionDispatched records one dispatch with its outcome and duration.
func (p *Pipeline) TranscriptionDispatched(ctx context.Context, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.transcriptions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	p.transcribeDuration.Record(ctx, d.Seconds())
}

// ErrorRecorded records a pipeline error by code and component.
func (p *Pipeline) ErrorRecorded(ctx context.Context, code, component string) {
	if p == nil {
		return
	}
	p.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
