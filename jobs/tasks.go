package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeShortageRequested notifies HQ that a branch opened a shortage
	// request.
	TaskTypeShortageRequested = "inventory:shortage_requested"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP once the mail relay is provisioned.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// ShortageRequestedPayload identifies the shortage request to announce.
type ShortageRequestedPayload struct {
	ShortageID int64   `json:"shortage_id"`
	BranchID   int64   `json:"branch_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   float64 `json:"quantity"`
}

// NewShortageRequestedTask constructs an Asynq task.
func NewShortageRequestedTask(payload ShortageRequestedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeShortageRequested, data, asynq.Queue(QueueDefault)), nil
}

// HandleShortageRequestedTask turns a shortage request into an HQ email.
func HandleShortageRequestedTask(notifyAddress string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ShortageRequestedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		email := SendEmailPayload{
			To:      notifyAddress,
			Subject: fmt.Sprintf("Shortage request #%d", payload.ShortageID),
			Body: fmt.Sprintf("Branch %d requested %.2f units of product %d.",
				payload.BranchID, payload.Quantity, payload.ProductID),
		}
		task, err := NewSendEmailTask(email)
		if err != nil {
			return err
		}
		return HandleSendEmailTask(ctx, task)
	}
}
