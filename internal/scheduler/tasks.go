// Package scheduler moves due follow-up queue items through Redis-backed
// delivery: a dispatcher claims rows and enqueues asynq tasks, a worker
// consumes them and marks items sent.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowupDue = "followups.due"

type FollowupDuePayload struct {
	ItemID string `json:"itemId"`
}

func NewFollowupDueTask(payload FollowupDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowupDue, data), nil
}

func ParseFollowupDuePayload(task *asynq.Task) (FollowupDuePayload, error) {
	var payload FollowupDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowupDuePayload{}, err
	}
	return payload, nil
}
