// internal/workers/directory/resolve-profile/handler.go
package resolveprofile

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
	"visa-directory/internal/directory/profile"
)

const (
	TaskType = "resolve-profile"
)

var (
	ErrMissingIdentifier = errors.New("MISSING_IDENTIFIER")
)

type Resolver interface {
	ResolveProfile(ctx context.Context, id profile.Identifier) (*profile.Resolution, error)
}

type Handler struct {
	config   *Config
	resolver Resolver
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, resolver Resolver, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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
	id := profile.Identifier{
		ID:           input.BusinessID,
		LocationSlug: input.LocationSlug,
		NameSlug:     input.NameSlug,
	}
	if id.IsZero() {
		return nil, fmt.Errorf("%w: businessId or locationSlug/nameSlug required", ErrMissingIdentifier)
	}

	res, err := h.resolver.ResolveProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	h.logger.Info("profile resolved", map[string]interface{}{
		"identifier": id.String(),
		"businessId": res.Business.ID,
		"strategy":   res.Strategy,
		"redirect":   res.Redirect,
	})

	return &Output{
		Business:      res.Business,
		CanonicalSlug: res.CanonicalSlug,
		CanonicalURL:  res.CanonicalURL,
		Redirect:      res.Redirect,
		MatchStrategy: string(res.Strategy),
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
	case errors.As(err, &notFound):
		return apperrors.NewProfileNotFoundError(notFound.Identifier)
	case errors.Is(err, ErrMissingIdentifier):
		return apperrors.NewInvalidQueryError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("directory", err)
	}
	return apperrors.NewExternalServiceError("directory", err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
