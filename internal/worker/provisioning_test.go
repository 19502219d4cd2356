package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/queue"
)

type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
	dead    []*queue.Job
}

func (f *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil, nil
	}
	j := f.jobs[0]
	f.jobs = f.jobs[1:]
	return j, nil
}

func (f *fakeQueue) Retry(_ context.Context, job *queue.Job, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempt++
	if job.Attempt >= queue.MaxRetries {
		f.dead = append(f.dead, job)
		return nil
	}
	f.retried = append(f.retried, job)
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) DeadLetter(_ context.Context, job *queue.Job, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, job)
	return nil
}

type fakeUsers struct {
	mu     sync.Mutex
	stored []*models.User
	err    error
}

func (f *fakeUsers) Store(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, u)
	return nil
}

func provisioningJob(t *testing.T, p queue.UserProvisioningPayload) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeUserProvisioning, p)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

func validPayload() queue.UserProvisioningPayload {
	return queue.UserProvisioningPayload{
		TenantID: "T1", UserID: "sub-1", EmailHash: "hash", EncryptedEmail: "e",
		EncryptedDisplayName: "d", Role: "customer", ConfirmedAt: time.Now().UTC(),
	}
}

func TestProcess_StoresUser(t *testing.T) {
	users := &fakeUsers{}
	p := NewProvisioningProcessor(&fakeQueue{}, users, nil)
	if err := p.Process(context.Background(), provisioningJob(t, validPayload())); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(users.stored) != 1 || users.stored[0].UserID != "sub-1" || users.stored[0].Role != models.RoleCustomer {
		t.Errorf("stored = %+v", users.stored)
	}
}

func TestProcess_PermanentFailures(t *testing.T) {
	badRole := validPayload()
	badRole.Role = "root"
	noUser := validPayload()
	noUser.UserID = ""

	tests := []struct {
		name string
		job  *queue.Job
	}{
		{"unknown type", &queue.Job{ID: "1", Type: "email", Payload: json.RawMessage(`{}`)}},
		{"bad payload", &queue.Job{ID: "2", Type: queue.JobTypeUserProvisioning, Payload: json.RawMessage(`[`)}},
		{"bad role", provisioningJob(t, badRole)},
		{"missing user", provisioningJob(t, noUser)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			p := NewProvisioningProcessor(q, &fakeUsers{}, nil)
			err := p.Process(context.Background(), tt.job)
			if !errors.Is(err, errPermanent) {
				t.Fatalf("err = %v, want permanent", err)
			}
			if p.handle(context.Background(), tt.job) {
				t.Error("permanent failures should not back off")
			}
			if len(q.dead) != 1 || len(q.retried) != 0 {
				t.Errorf("dead = %d, retried = %d", len(q.dead), len(q.retried))
			}
		})
	}
}

func TestHandle_TransientFailureRetriesThenDeadLetters(t *testing.T) {
	q := &fakeQueue{}
	users := &fakeUsers{err: errors.New("db down")}
	p := NewProvisioningProcessor(q, users, nil)
	job := provisioningJob(t, validPayload())

	for i := 0; i < queue.MaxRetries; i++ {
		if !p.handle(context.Background(), job) {
			t.Fatalf("attempt %d: transient failure should back off", i)
		}
	}
	if len(q.retried) != queue.MaxRetries-1 {
		t.Errorf("retried = %d, want %d", len(q.retried), queue.MaxRetries-1)
	}
	if len(q.dead) != 1 || q.dead[0].Attempt != queue.MaxRetries {
		t.Errorf("dead = %+v", q.dead)
	}
}

func TestRun_DrainsQueueAndStops(t *testing.T) {
	q := &fakeQueue{}
	for i := 0; i < 3; i++ {
		pl := validPayload()
		pl.UserID = string(rune('a' + i))
		q.jobs = append(q.jobs, provisioningJob(t, pl))
	}
	users := &fakeUsers{}
	p := NewProvisioningProcessor(q, users, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		users.mu.Lock()
		n := len(users.stored)
		users.mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("stored %d of 3 users", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
