// internal/hooks/events.go
package hooks

import (
	"context"

	"equimarket/internal/common/aws"
	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
)

// EventPublisher sends the listing event to the SNS topic.
type EventPublisher struct {
	client *aws.SNSClient
	logger logger.Logger
}

func NewEventPublisher(client *aws.SNSClient, log logger.Logger) *EventPublisher {
	return &EventPublisher{client: client, logger: log}
}

func (p *EventPublisher) Name() string { return "sns" }

func (p *EventPublisher) Run(ctx context.Context, s Submission) error {
	id, err := p.client.PublishEvent(ctx, s.Event.Type, s.Event)
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	p.logger.Debug("listing event published", map[string]interface{}{
		"messageId": id,
		"eventId":   s.Event.EventID,
	})
	return nil
}
