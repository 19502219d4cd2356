package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueProvisioning is the Redis list key for user provisioning jobs.
	QueueProvisioning = "worker:provisioning"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of attempts before a job moves to the DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// PollTimeout bounds one blocking pop so the worker notices cancellation.
	PollTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeUserProvisioning JobType = "user_provisioning"
)

// UserProvisioningPayload is a prepared user record. Email and display name are already sealed.
type UserProvisioningPayload struct {
	TenantID             string    `json:"tenant_id"`
	UserID               string    `json:"user_id"`
	EmailHash            string    `json:"email_hash"`
	EncryptedEmail       string    `json:"encrypted_email"`
	EncryptedDisplayName string    `json:"encrypted_display_name"`
	Role                 string    `json:"role"`
	ConfirmedAt          time.Time `json:"confirmed_at"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in an envelope with a fresh id.
func NewJob(t JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueUserProvisioning enqueues a provisioning job and returns its id.
func (q *Queue) EnqueueUserProvisioning(ctx context.Context, payload UserProvisioningPayload) (string, error) {
	job, err := NewJob(JobTypeUserProvisioning, payload)
	if err != nil {
		return "", err
	}
	if err := q.push(ctx, QueueProvisioning, job); err != nil {
		return "", err
	}
	q.logger.Debug("enqueued provisioning job", zap.String("job_id", job.ID), zap.String("user_id", payload.UserID))
	return job.ID, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue waits up to PollTimeout for a provisioning job. A nil job with nil error means the wait timed
// out or the entry was unreadable.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, PollTimeout, QueueProvisioning).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Once attempt reaches MaxRetries the job goes to the DLQ.
func (q *Queue) Retry(ctx context.Context, job *Job, cause error) error {
	job.Attempt++
	if cause != nil {
		job.LastError = cause.Error()
	}
	if job.Attempt >= MaxRetries {
		return q.DeadLetter(ctx, job, cause)
	}
	if err := q.push(ctx, QueueProvisioning, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeadLetter moves a job to the DLQ without further attempts.
func (q *Queue) DeadLetter(ctx context.Context, job *Job, cause error) error {
	if cause != nil {
		job.LastError = cause.Error()
	}
	if err := q.push(ctx, QueueDLQ, job); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
