package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsched/office-hours-api/internal/models"
	"github.com/ohsched/office-hours-api/pkg/jobs"
)

type jobStoreStub struct {
	mu     sync.Mutex
	jobs   []models.NotificationJob
	nextID int
}

func (s *jobStoreStub) Create(ctx context.Context, job *models.NotificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = fmt.Sprintf("job-%d", s.nextID)
	job.Status = models.NotificationPending
	s.jobs = append(s.jobs, *job)
	return nil
}

func (s *jobStoreStub) ListPending(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.NotificationJob
	for _, job := range s.jobs {
		if job.Status == models.NotificationPending && len(out) < limit {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *jobStoreStub) List(ctx context.Context, status *models.NotificationStatus, page, pageSize int) ([]models.NotificationJob, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.NotificationJob
	for _, job := range s.jobs {
		if status == nil || job.Status == *status {
			out = append(out, job)
		}
	}
	return out, len(out), nil
}

func (s *jobStoreStub) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(id, models.NotificationSent, "")
}

func (s *jobStoreStub) MarkFailed(ctx context.Context, id string, reason string) error {
	return s.setStatus(id, models.NotificationFailed, reason)
}

func (s *jobStoreStub) setStatus(id string, status models.NotificationStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i].Status = status
			if reason != "" {
				s.jobs[i].ErrorMessage = &reason
			}
			return nil
		}
	}
	return fmt.Errorf("job %s not found", id)
}

type senderStub struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *senderStub) Send(ctx context.Context, job *models.NotificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, job.ID)
	return nil
}

func outboxRecipient() *models.User {
	return &models.User{
		ID:                 "u1",
		Email:              "casey@example.com",
		FullName:           "Casey Host",
		EmailOnAssigned:    true,
		EmailOnRemoved:     true,
		EmailOnCancelled:   true,
		EmailOnTimeChanged: true,
	}
}

func outboxInstance() *models.EventInstance {
	return &models.EventInstance{
		ID:       "inst-1",
		Title:    "Office Hours",
		Notes:    "bring questions",
		StartUTC: ts(2026, time.February, 4, 14, 0),
		EndUTC:   ts(2026, time.February, 4, 15, 0),
		Status:   models.EventStatusActive,
	}
}

func TestOutboxEnqueueRendersInvite(t *testing.T) {
	store := &jobStoreStub{}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, nil, nil, nil, OutboxConfig{})

	err := svc.Enqueue(context.Background(), models.NotificationHostAssigned, outboxRecipient(), outboxInstance())
	require.NoError(t, err)
	require.Len(t, store.jobs, 1)

	job := store.jobs[0]
	assert.Equal(t, models.NotificationHostAssigned, job.Kind)
	assert.Equal(t, "casey@example.com", job.RecipientEmail)
	assert.Contains(t, job.Subject, "You are hosting: Office Hours")
	assert.Contains(t, job.ICSPayload, "METHOD:REQUEST")
	assert.Contains(t, job.ICSPayload, "SEQUENCE:0")
	assert.Contains(t, job.ICSPayload, "DTSTART:20260204T140000Z")
}

func TestOutboxEnqueueCancellationUsesCancelMethod(t *testing.T) {
	store := &jobStoreStub{}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, nil, nil, nil, OutboxConfig{})

	err := svc.Enqueue(context.Background(), models.NotificationEventCancelled, outboxRecipient(), outboxInstance())
	require.NoError(t, err)
	require.Len(t, store.jobs, 1)
	assert.Contains(t, store.jobs[0].ICSPayload, "METHOD:CANCEL")
	assert.Contains(t, store.jobs[0].ICSPayload, "SEQUENCE:1")
	assert.True(t, strings.Contains(store.jobs[0].ICSPayload, "STATUS:CANCELLED"))
}

func TestOutboxEnqueueRespectsPreferences(t *testing.T) {
	store := &jobStoreStub{}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, nil, nil, nil, OutboxConfig{})

	muted := outboxRecipient()
	muted.EmailOnRemoved = false
	err := svc.Enqueue(context.Background(), models.NotificationHostRemoved, muted, outboxInstance())
	require.NoError(t, err)
	assert.Empty(t, store.jobs)
}

func TestOutboxDeliverMarksSent(t *testing.T) {
	store := &jobStoreStub{}
	sender := &senderStub{}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, sender, nil, nil, OutboxConfig{})

	require.NoError(t, svc.Enqueue(context.Background(), models.NotificationHostAssigned, outboxRecipient(), outboxInstance()))
	job := store.jobs[0]

	err := svc.deliver(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Kind), Payload: job})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, store.jobs[0].Status)
	assert.Equal(t, []string{job.ID}, sender.sent)
}

func TestOutboxDeliverMarksFailed(t *testing.T) {
	store := &jobStoreStub{}
	sender := &senderStub{err: errors.New("smtp unreachable")}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, sender, nil, nil, OutboxConfig{})

	require.NoError(t, svc.Enqueue(context.Background(), models.NotificationHostAssigned, outboxRecipient(), outboxInstance()))
	job := store.jobs[0]

	err := svc.deliver(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Kind), Payload: job})
	require.Error(t, err)
	assert.Equal(t, models.NotificationFailed, store.jobs[0].Status)
	require.NotNil(t, store.jobs[0].ErrorMessage)
	assert.Equal(t, "smtp unreachable", *store.jobs[0].ErrorMessage)
}

func TestOutboxListJobsDefaultsPagination(t *testing.T) {
	store := &jobStoreStub{}
	svc := NewOutboxService(store, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil, nil, nil, nil, OutboxConfig{})
	require.NoError(t, svc.Enqueue(context.Background(), models.NotificationHostAssigned, outboxRecipient(), outboxInstance()))

	listed, pagination, err := svc.ListJobs(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
