// internal/workers/directory/search-directory/handler.go
package searchdirectory

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
	"visa-directory/internal/directory"
	"visa-directory/internal/directory/search"
	"visa-directory/internal/models"
)

const (
	TaskType = "search-directory"
)

// Searcher is satisfied by *directory.Directory.
type Searcher interface {
	Search(ctx context.Context, q models.Query, pageCount int) (*directory.Page, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		searcher: searcher,
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
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", search.ErrInvalidQuery)
	}

	page, err := h.searcher.Search(ctx, input.Query(), input.PageCount)
	if err != nil {
		return nil, err
	}

	h.logger.Info("directory searched", map[string]interface{}{
		"searchTerm": page.Query.SearchTerm,
		"category":   page.Query.CategoryFilter,
		"total":      page.Total,
		"pageCount":  page.PageCount,
	})

	return &Output{
		Businesses: page.Items,
		Total:      page.Total,
		PageCount:  page.PageCount,
		HasMore:    page.HasMore,
		Empty:      page.Empty,
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
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		return apperrors.NewInvalidQueryError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("directory", err)
	}
	return apperrors.NewExternalServiceError("directory", err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
