package camunda

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/models"
)

func TestCorrelationKey(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
		wantErr string
	}{
		{name: "matches ready event", payload: models.MatchesReadyEvent{JobID: "job-1"}, want: "job-1"},
		{name: "empty job id", payload: models.MatchesReadyEvent{}, wantErr: "empty correlation key"},
		{name: "plain map", payload: map[string]string{"jobId": "job-1"}, wantErr: "no correlation key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := correlationKey(tt.payload)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestMessagePublisher_RejectsUncorrelatedPayload(t *testing.T) {
	p := NewMessagePublisher(newTestClient(), time.Minute)

	id, err := p.PublishEvent(context.Background(), "", "caregiver-matches-ready", struct{}{})
	require.Error(t, err)
	assert.Empty(t, id)
}

func TestMessagePublisher_PublishEvent(t *testing.T) {
	event := models.MatchesReadyEvent{JobID: "job-1", RunID: "run-1"}

	tests := []struct {
		name     string
		send     func(calls int) (int64, error)
		wantID   string
		wantCall int
		validate func(t *testing.T, err error)
	}{
		{
			name:     "published",
			send:     func(int) (int64, error) { return 2251799813685249, nil },
			wantID:   "2251799813685249",
			wantCall: 1,
		},
		{
			name: "backpressure then published",
			send: func(calls int) (int64, error) {
				if calls == 1 {
					return 0, status.Error(codes.ResourceExhausted, "busy")
				}
				return 7, nil
			},
			wantID:   "7",
			wantCall: 2,
		},
		{
			name:     "rejected message",
			send:     func(int) (int64, error) { return 0, status.Error(codes.InvalidArgument, "bad ttl") },
			wantCall: 1,
			validate: func(t *testing.T, err error) {
				var stdErr *apperrors.StandardError
				require.ErrorAs(t, err, &stdErr)
				assert.Equal(t, apperrors.ErrCodeEventPublishFailed, stdErr.Code)
				assert.Equal(t, "job-1", stdErr.Metadata["correlationKey"])
				assert.Equal(t, string(apperrors.ErrCodeExternalService), stdErr.Metadata["zeebeErrorCode"])
				assert.Contains(t, stdErr.Details, "zeebe:caregiver-matches-ready")
				assert.False(t, stdErr.Retryable)
			},
		},
		{
			name:     "gateway down after retries",
			send:     func(int) (int64, error) { return 0, status.Error(codes.Unavailable, "down") },
			wantCall: 3,
			validate: func(t *testing.T, err error) {
				var stdErr *apperrors.StandardError
				require.ErrorAs(t, err, &stdErr)
				assert.Equal(t, apperrors.ErrCodeEventPublishFailed, stdErr.Code)
				assert.True(t, stdErr.Retryable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMessagePublisher(newTestClient(), time.Minute)
			calls := 0
			p.send = func(_ context.Context, name, key string, payload interface{}) (int64, error) {
				calls++
				assert.Equal(t, "caregiver-matches-ready", name)
				assert.Equal(t, "job-1", key)
				assert.Equal(t, event, payload)
				return tt.send(calls)
			}

			id, err := p.PublishEvent(context.Background(), "ignored-topic", "caregiver-matches-ready", event)
			assert.Equal(t, tt.wantCall, calls)
			if tt.validate != nil {
				require.Error(t, err)
				assert.Empty(t, id)
				tt.validate(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
