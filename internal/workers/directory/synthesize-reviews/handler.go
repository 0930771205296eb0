// internal/workers/directory/synthesize-reviews/handler.go
package synthesizereviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "visa-directory/internal/common/errors"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/directory/reviews"
)

const (
	TaskType = "synthesize-reviews"
)

var (
	ErrMissingBusinessName = errors.New("MISSING_BUSINESS_NAME")
	ErrTargetCountTooLarge = errors.New("TARGET_COUNT_TOO_LARGE")
)

// Handler is pure: the same variables always complete with the same reviews.
type Handler struct {
	config *Config
	synth  *reviews.Synthesizer
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		synth:  reviews.NewSynthesizer(config.ReviewFloor),
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewInvalidQueryError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, h.toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return nil, fmt.Errorf("%w: businessName is required", ErrMissingBusinessName)
	}
	if input.TargetCount > reviews.MaxTargetCount {
		return nil, fmt.Errorf("%w: targetCount %d exceeds %d", ErrTargetCountTooLarge, input.TargetCount, reviews.MaxTargetCount)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := h.synth.Length(input.TargetCount)
	offset, limit := reviews.ClampWindow(input.Offset, input.Limit)
	generated := h.synth.Window(name, input.TargetCount, offset, limit)
	metrics.ReviewsSynthesized.Add(float64(len(generated)))

	h.logger.Debug("reviews synthesized", map[string]interface{}{
		"businessName": name,
		"total":        total,
		"returned":     len(generated),
	})

	return &Output{
		Reviews: generated,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("review-synthesizer", err)
	}
	return apperrors.NewInvalidQueryError(err.Error())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
