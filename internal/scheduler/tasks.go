// Package scheduler owns the asynq task plumbing: the enqueue client used
// by the router and the worker that delivers WhatsApp reminders for orders
// the customer walked away from.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOrderReminder = "orders.reminder"

type OrderReminderPayload struct {
	ConversationID string `json:"conversationId"`
	Phone          string `json:"phone"`
}

func NewOrderReminderTask(payload OrderReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderReminder, data), nil
}

func ParseOrderReminderPayload(task *asynq.Task) (OrderReminderPayload, error) {
	var payload OrderReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrderReminderPayload{}, err
	}
	return payload, nil
}
