package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const defaultInterTaskDelay = 3 * time.Second

type taskListData struct {
	Data []struct {
		TaskList struct {
			Data []struct {
				ResourceID     int    `json:"resourceId"`
				CompletedCount int    `json:"completedCount"`
				Type           string `json:"type"`
				Status         string `json:"status"`
			} `json:"data"`
		} `json:"taskList"`
	} `json:"data"`
}

type TaskReport struct {
	Completed []int
	Failed    []int
}

type TaskOrchestrator struct {
	transport      ports.Transport
	clock          ports.Clock
	log            logrus.FieldLogger
	retry          RetryPolicy
	interTaskDelay time.Duration
}

func NewTaskOrchestrator(transport ports.Transport, clock ports.Clock, log logrus.FieldLogger) *TaskOrchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &TaskOrchestrator{
		transport:      transport,
		clock:          clock,
		log:            log,
		retry:          DefaultRetryPolicy(clock, log),
		interTaskDelay: defaultInterTaskDelay,
	}
}

// CompleteOutstandingTasks completes every pending task once, in list order.
// Only a failed task-list fetch is returned as an error; single task
// failures are logged and recorded in the report.
func (o *TaskOrchestrator) CompleteOutstandingTasks(ctx context.Context, session *AuthSession) (TaskReport, error) {
	tasks, err := Retry(ctx, o.retry, func(ctx context.Context) ([]domain.Task, error) {
		return o.FetchTaskList(ctx, session)
	})
	if err != nil {
		return TaskReport{}, fmt.Errorf("fetch task list: %w", err)
	}

	pending := domain.PendingTaskIDs(tasks)
	if len(pending) == 0 {
		o.log.Warn("task: no incomplete tasks")
		return TaskReport{}, nil
	}

	o.log.Infof("task: completing %d tasks", len(pending))

	var report TaskReport
	for _, resourceID := range pending {
		taskLog := o.log.WithField(logging.FieldTask, resourceID)

		if err := o.completeTask(ctx, session, resourceID); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			taskLog.WithError(err).Error("task: not completed")
			report.Failed = append(report.Failed, resourceID)
		} else {
			taskLog.Info("task: completed")
			report.Completed = append(report.Completed, resourceID)
		}

		if err := o.clock.Sleep(ctx, o.interTaskDelay); err != nil {
			return report, err
		}
	}

	return report, nil
}

// FetchTaskList performs a single task-list call.
func (o *TaskOrchestrator) FetchTaskList(ctx context.Context, session *AuthSession) ([]domain.Task, error) {
	o.log.Info("task: fetching task list")

	envelope, err := o.transport.Send(ctx, ports.EndpointTaskList, session.Token(), gameResource())
	if err != nil {
		return nil, err
	}
	if !envelope.OK() {
		return nil, &domain.RemoteError{Kind: domain.ErrRemoteRejected, Op: "get task list", Code: envelope.Code, Message: envelope.Message}
	}

	var data taskListData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("decode task list: %w", err)
		}
	}
	if len(data.Data) == 0 {
		return nil, nil
	}

	entries := data.Data[0].TaskList.Data
	tasks := make([]domain.Task, 0, len(entries))
	for _, entry := range entries {
		tasks = append(tasks, domain.Task{
			ResourceID:     entry.ResourceID,
			CompletedCount: entry.CompletedCount,
			Type:           entry.Type,
			RemoteStatus:   entry.Status,
		})
	}

	return tasks, nil
}

func (o *TaskOrchestrator) completeTask(ctx context.Context, session *AuthSession, resourceID int) error {
	// Sent once per pass; a failure counts as one failed task.
	envelope, err := o.transport.Send(ctx, ports.EndpointTaskComplete, session.Token(), taskCompleteRequest{ResourceIDList: []int{resourceID}})
	if err != nil {
		return fmt.Errorf("complete task %d: %w: %w", resourceID, domain.ErrTaskCompletion, err)
	}
	if !envelope.OK() {
		return &domain.RemoteError{Kind: domain.ErrTaskCompletion, Op: fmt.Sprintf("complete task %d", resourceID), Code: envelope.Code, Message: envelope.Message}
	}

	return nil
}
