// internal/workers/directory/classify-businesses/handler.go
package classifybusinesses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "visa-directory/internal/common/errors"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/directory/category"
	"visa-directory/internal/models"
)

const (
	TaskType = "classify-businesses"
)

var (
	ErrEmptyBucket              = errors.New("EMPTY_BUCKET")
	ErrBucketsWithoutBusinesses = errors.New("BUCKETS_WITHOUT_BUSINESSES")
)

// Snapshot is satisfied by *directory.Directory.
type Snapshot interface {
	Classify(ctx context.Context) (map[string][]models.Business, error)
	Buckets() map[string][]string
}

type Handler struct {
	config   *Config
	snapshot Snapshot
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, snapshot Snapshot, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		snapshot: snapshot,
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
	for key, keywords := range input.Buckets {
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: bucket %q has no keywords", ErrEmptyBucket, key)
		}
	}
	if len(input.Buckets) > 0 && len(input.Businesses) == 0 {
		return nil, ErrBucketsWithoutBusinesses
	}

	var grouped map[string][]models.Business
	if len(input.Businesses) > 0 {
		buckets := input.Buckets
		if len(buckets) == 0 {
			buckets = h.snapshot.Buckets()
		}
		grouped = category.ClassifyAll(input.Businesses, buckets)
	} else {
		var err error
		grouped, err = h.snapshot.Classify(ctx)
		if err != nil {
			return nil, err
		}
	}

	output := &Output{
		Buckets: make(map[string][]string, len(grouped)),
		Counts:  make(map[string]int, len(grouped)),
		Tags:    make(map[string][]string),
	}
	for key, members := range grouped {
		ids := make([]string, 0, len(members))
		for _, b := range members {
			ids = append(ids, b.ID)
			output.Tags[b.ID] = append(output.Tags[b.ID], key)
		}
		output.Buckets[key] = ids
		output.Counts[key] = len(ids)
	}
	for id := range output.Tags {
		sort.Strings(output.Tags[id])
	}

	h.logger.Info("businesses classified", map[string]interface{}{
		"buckets": len(output.Buckets),
		"tagged":  len(output.Tags),
	})
	return output, nil
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
	case errors.Is(err, ErrEmptyBucket), errors.Is(err, ErrBucketsWithoutBusinesses):
		return apperrors.NewInvalidQueryError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("directory", err)
	}
	return apperrors.NewExternalServiceError("directory", err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
