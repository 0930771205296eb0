// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"visa-directory/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every directory job worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration describes one job worker to open against the broker.
type Registration struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Handler       JobHandler
}

// CamundaWorker owns one open job worker. The zbc.Client is shared and closed by the caller.
type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(client zbc.Client, reg Registration, log logger.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(reg.TaskType).
		Handler(reg.Handler.Handle).
		MaxJobsActive(reg.MaxJobsActive)
	if reg.Timeout > 0 {
		step = step.Timeout(reg.Timeout)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: reg.TaskType,
	}
	log.Info("worker started", map[string]interface{}{
		"taskType":      reg.TaskType,
		"maxJobsActive": reg.MaxJobsActive,
	})
	return w
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
