// internal/workers/complaints/file-complaint/handler.go
package filecomplaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "visa-directory/internal/common/errors"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/models"
)

const (
	TaskType = "file-complaint"
)

// Filer is satisfied by *directory.Directory.
type Filer interface {
	FileComplaint(ctx context.Context, in complaints.Input) (*models.Complaint, error)
}

type Handler struct {
	config *Config
	filer  Filer
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, filer Filer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		filer:  filer,
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
		h.failJob(ctx, client, job, apperrors.NewComplaintInvalidError(fmt.Sprintf("parse input: %v", err)))
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
	filed, err := h.filer.FileComplaint(ctx, complaints.Input{
		BusinessID:    input.BusinessID,
		ReporterName:  input.ReporterName,
		ReporterEmail: input.ReporterEmail,
		Subject:       input.Subject,
		Description:   input.Description,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ComplaintID: filed.ID,
		Status:      filed.Status,
		CreatedAt:   filed.CreatedAt,
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
	var notFound *profile.ProfileNotFoundError
	switch {
	case errors.Is(err, complaints.ErrComplaintInvalid):
		return apperrors.NewComplaintInvalidError(err.Error())
	case errors.As(err, &notFound):
		return apperrors.NewProfileNotFoundError(notFound.Identifier)
	case errors.Is(err, complaints.ErrStoreFailed):
		return apperrors.NewComplaintStoreFailedError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("complaints", err)
	}
	return apperrors.NewExternalServiceError("complaints", err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
