package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNurtureFollowUp = "triage.nurture.follow_up"

type NurtureFollowUpPayload struct {
	LeadID    string `json:"leadId"`
	SessionID string `json:"sessionId"`
	LeadName  string `json:"leadName,omitempty"`
	LeadEmail string `json:"leadEmail,omitempty"`
}

func NewNurtureFollowUpTask(payload NurtureFollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNurtureFollowUp, data), nil
}

func ParseNurtureFollowUpPayload(task *asynq.Task) (NurtureFollowUpPayload, error) {
	var payload NurtureFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NurtureFollowUpPayload{}, err
	}
	return payload, nil
}
