package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskReconcileFamily = "schedule.reconcile"

type ReconcileFamilyPayload struct {
	Family string `json:"family"`
}

func NewReconcileFamilyTask(payload ReconcileFamilyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileFamily, data), nil
}

func ParseReconcileFamilyPayload(task *asynq.Task) (ReconcileFamilyPayload, error) {
	var payload ReconcileFamilyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReconcileFamilyPayload{}, err
	}
	return payload, nil
}
