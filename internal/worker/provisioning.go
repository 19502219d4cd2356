// Package worker runs background jobs pulled from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/internal/users"
	"github.com/fooder/backend/pkg/queue"
)

// JobQueue is the queue surface the processor needs.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error) error
	DeadLetter(ctx context.Context, job *queue.Job, cause error) error
}

// UserStore stores prepared user records.
type UserStore interface {
	Store(ctx context.Context, u *models.User) error
}

// errPermanent marks failures that no retry can fix.
var errPermanent = errors.New("permanent job failure")

// ProvisioningProcessor stores users prepared by the identity confirmation hook.
type ProvisioningProcessor struct {
	queue   JobQueue
	users   UserStore
	logger  *zap.Logger
	backoff time.Duration
}

// NewProvisioningProcessor creates a provisioning processor.
func NewProvisioningProcessor(q JobQueue, users UserStore, logger *zap.Logger) *ProvisioningProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningProcessor{queue: q, users: users, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one provisioning job.
func (p *ProvisioningProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeUserProvisioning {
		return fmt.Errorf("%w: unknown job type %q", errPermanent, job.Type)
	}
	var payload queue.UserProvisioningPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", errPermanent, err)
	}
	if payload.TenantID == "" || payload.UserID == "" || payload.EmailHash == "" {
		return fmt.Errorf("%w: incomplete payload", errPermanent)
	}
	if role := models.Role(payload.Role); role != models.RoleAdmin && role != models.RoleCustomer {
		return fmt.Errorf("%w: unknown role %q", errPermanent, payload.Role)
	}
	if err := p.users.Store(ctx, users.FromPayload(payload)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// handle processes job and routes failures to retry or the DLQ. It reports whether the caller should back off.
func (p *ProvisioningProcessor) handle(ctx context.Context, job *queue.Job) bool {
	err := p.Process(ctx, job)
	if err == nil {
		p.logger.Debug("job done", zap.String("job_id", job.ID))
		return false
	}
	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	if errors.Is(err, errPermanent) {
		if dlqErr := p.queue.DeadLetter(ctx, job, err); dlqErr != nil {
			p.logger.Error("dead-letter failed", zap.Error(dlqErr))
		}
		return false
	}
	if reErr := p.queue.Retry(ctx, job, err); reErr != nil {
		p.logger.Error("retry enqueue failed", zap.Error(reErr))
	}
	return true
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *ProvisioningProcessor) Run(ctx context.Context) {
	p.logger.Info("provisioning worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("provisioning worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.wait(ctx)
			continue
		}
		if job == nil {
			continue
		}
		if p.handle(ctx, job) {
			p.wait(ctx)
		}
	}
}

func (p *ProvisioningProcessor) wait(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
