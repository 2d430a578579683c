// internal/common/camunda/messages.go
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	apperrors "cuidly-matching/internal/common/errors"
)

// Correlated is implemented by event payloads that carry their own message
// correlation key.
type Correlated interface {
	CorrelationKey() string
}

// MessagePublisher publishes domain events as Zeebe messages so waiting
// process instances can correlate on them. It satisfies the same
// PublishEvent shape as the SNS client.
type MessagePublisher struct {
	client *Client
	ttl    time.Duration
	send   sendMessageFunc
}

type sendMessageFunc func(ctx context.Context, name, correlationKey string, payload interface{}) (int64, error)

func NewMessagePublisher(client *Client, ttl time.Duration) *MessagePublisher {
	p := &MessagePublisher{client: client, ttl: ttl}
	p.send = p.sendZeebe
	return p
}

func (p *MessagePublisher) sendZeebe(ctx context.Context, name, correlationKey string, payload interface{}) (int64, error) {
	cmd, err := p.client.client.NewPublishMessageCommand().
		MessageName(name).
		CorrelationKey(correlationKey).
		TimeToLive(p.ttl).
		VariablesFromObject(payload)
	if err != nil {
		return 0, err
	}
	resp, err := cmd.Send(ctx)
	if err != nil {
		return 0, err
	}
	return resp.GetKey(), nil
}

// PublishEvent sends payload as message eventType. The topic argument is
// ignored; the returned id is the message key. Failures come back as
// EVENT_PUBLISH_FAILED carrying the message name and correlation key, with
// the zeebe classification kept in the details.
func (p *MessagePublisher) PublishEvent(ctx context.Context, _ string, eventType string, payload interface{}) (string, error) {
	key, err := correlationKey(payload)
	if err != nil {
		return "", err
	}

	result, err := p.client.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return p.send(ctx, eventType, key, payload)
	}, "publish-message:"+eventType)
	if err != nil {
		stdErr := apperrors.NewEventPublishFailedError("zeebe:"+eventType, err).
			WithMetadata("correlationKey", key)
		var cause *apperrors.StandardError
		if stderrors.As(err, &cause) {
			stdErr.Retryable = cause.Retryable
			stdErr.WithMetadata("zeebeErrorCode", string(cause.Code))
		}
		return "", stdErr
	}

	return strconv.FormatInt(result.(int64), 10), nil
}

func correlationKey(payload interface{}) (string, error) {
	c, ok := payload.(Correlated)
	if !ok {
		return "", fmt.Errorf("payload %T has no correlation key", payload)
	}
	key := c.CorrelationKey()
	if key == "" {
		return "", fmt.Errorf("payload %T has an empty correlation key", payload)
	}
	return key, nil
}
