package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ohsched/office-hours-api/internal/ics"
	"github.com/ohsched/office-hours-api/internal/models"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
	"github.com/ohsched/office-hours-api/pkg/jobs"
)

type outboxJobStore interface {
	Create(ctx context.Context, job *models.NotificationJob) error
	ListPending(ctx context.Context, limit int) ([]models.NotificationJob, error)
	List(ctx context.Context, status *models.NotificationStatus, page, pageSize int) ([]models.NotificationJob, int, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxSettingsReader interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
}

// Sender delivers a rendered notification to its recipient.
type Sender interface {
	Send(ctx context.Context, job *models.NotificationJob) error
}

// LogSender is the default delivery backend: it logs instead of sending.
// Deployments wire a real mail sender in its place.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the notification and reports success.
func (s *LogSender) Send(_ context.Context, job *models.NotificationJob) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notification delivered (log sender)",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("recipient", job.RecipientEmail),
		zap.String("subject", job.Subject))
	return nil
}

// OutboxConfig tunes the background dispatcher.
type OutboxConfig struct {
	WorkerCount      int
	DispatchInterval time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	BatchSize        int
}

// OutboxService appends notification jobs for host and schedule changes and
// drains them in the background. Enqueueing is fire-and-forget: assignment
// paths never wait on delivery, and a delivery failure never unwinds the
// write that produced it.
type OutboxService struct {
	repo     outboxJobStore
	settings outboxSettingsReader
	renderer *ics.Renderer
	sender   Sender
	metrics  *MetricsService
	logger   *zap.Logger
	config   OutboxConfig

	queue    *jobs.Queue
	ticker   *time.Ticker
	stopped  chan struct{}
	mu       sync.Mutex
	inflight map[string]struct{}
	running  bool
}

// NewOutboxService constructs an OutboxService.
func NewOutboxService(repo outboxJobStore, settings outboxSettingsReader, renderer *ics.Renderer, sender Sender, metrics *MetricsService, logger *zap.Logger, config OutboxConfig) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = &LogSender{Logger: logger}
	}
	if renderer == nil {
		renderer = ics.NewRenderer("", "")
	}
	if config.DispatchInterval <= 0 {
		config.DispatchInterval = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}

	s := &OutboxService{
		repo:     repo,
		settings: settings,
		renderer: renderer,
		sender:   sender,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		inflight: make(map[string]struct{}),
	}
	s.queue = jobs.NewQueue("notification-outbox", s.deliver, jobs.QueueConfig{
		Workers:    config.WorkerCount,
		MaxRetries: config.MaxRetries,
		RetryDelay: config.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Enqueue renders and stores a notification job for the recipient. The
// recipient's preference flags gate creation: a muted kind is dropped
// silently and the calling write proceeds unaffected.
func (s *OutboxService) Enqueue(ctx context.Context, kind models.NotificationKind, recipient *models.User, instance *models.EventInstance) error {
	if recipient == nil || instance == nil {
		return nil
	}
	if !allowsKind(recipient, kind) {
		s.logger.Debug("notification muted by preference",
			zap.String("kind", string(kind)),
			zap.String("recipient_id", recipient.ID))
		return nil
	}

	brand := "Office Hours"
	link := ""
	if s.settings != nil {
		if settings, err := s.settings.Get(ctx); err == nil {
			if settings.BrandTitle != "" {
				brand = settings.BrandTitle
			}
			link = settings.BrandLink
		}
	}

	subject, body := composeMessage(kind, brand, instance, recipient)
	invite := ics.Invite{
		InstanceID:    instance.ID,
		Summary:       instance.Title,
		Description:   instance.Notes,
		Start:         time.Unix(0, instance.StartUTC).UTC(),
		End:           time.Unix(0, instance.EndUTC).UTC(),
		Sequence:      sequenceFor(kind),
		Cancelled:     kind == models.NotificationEventCancelled,
		OrganizerName: brand,
		AttendeeEmail: recipient.Email,
		AttendeeName:  recipient.FullName,
	}
	if instance.Link != nil {
		invite.Link = *instance.Link
	} else if link != "" {
		invite.Link = link
	}

	job := &models.NotificationJob{
		Kind:           kind,
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		Subject:        subject,
		BodyText:       body,
		ICSPayload:     s.renderer.Render(invite),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue notification")
	}
	return nil
}

// ListJobs returns outbox jobs for the admin API.
func (s *OutboxService) ListJobs(ctx context.Context, status *models.NotificationStatus, page, pageSize int) ([]models.NotificationJob, *models.Pagination, error) {
	jobsList, total, err := s.repo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notification jobs")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return jobsList, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// StartDispatcher begins draining pending jobs in the background.
func (s *OutboxService) StartDispatcher(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ticker = time.NewTicker(s.config.DispatchInterval)
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	s.queue.Start(ctx)
	go func() {
		s.pollOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopped:
				return
			case <-s.ticker.C:
				s.pollOnce(ctx)
			}
		}
	}()
	s.logger.Info("notification dispatcher started",
		zap.Duration("interval", s.config.DispatchInterval),
		zap.Int("workers", s.config.WorkerCount))
}

// StopDispatcher halts polling and waits for in-flight deliveries.
func (s *OutboxService) StopDispatcher() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stopped)
	s.mu.Unlock()

	s.queue.Stop()
}

func (s *OutboxService) pollOnce(ctx context.Context) {
	pending, err := s.repo.ListPending(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Warn("outbox poll failed", zap.Error(err))
		return
	}
	for i := range pending {
		job := pending[i]
		s.mu.Lock()
		if _, busy := s.inflight[job.ID]; busy {
			s.mu.Unlock()
			continue
		}
		s.inflight[job.ID] = struct{}{}
		s.mu.Unlock()

		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind), Payload: job}); err != nil {
			s.release(job.ID)
			s.logger.Warn("outbox enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *OutboxService) deliver(ctx context.Context, queued jobs.Job) error {
	job, ok := queued.Payload.(models.NotificationJob)
	if !ok {
		s.release(queued.ID)
		return fmt.Errorf("unexpected outbox payload type %T", queued.Payload)
	}

	if err := s.sender.Send(ctx, &job); err != nil {
		s.metrics.RecordNotificationDispatch(false)
		if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark notification failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		s.release(job.ID)
		return err
	}

	if err := s.repo.MarkSent(ctx, job.ID); err != nil {
		s.logger.Warn("failed to mark notification sent", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordNotificationDispatch(true)
	s.release(job.ID)
	return nil
}

func (s *OutboxService) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func allowsKind(user *models.User, kind models.NotificationKind) bool {
	switch kind {
	case models.NotificationHostAssigned:
		return user.EmailOnAssigned
	case models.NotificationHostRemoved:
		return user.EmailOnRemoved
	case models.NotificationEventCancelled:
		return user.EmailOnCancelled
	case models.NotificationTimeChanged:
		return user.EmailOnTimeChanged
	default:
		return false
	}
}

// sequenceFor bumps the iCalendar SEQUENCE for updates so clients replace
// the original invite instead of duplicating it.
func sequenceFor(kind models.NotificationKind) int {
	if kind == models.NotificationHostAssigned {
		return 0
	}
	return 1
}

func composeMessage(kind models.NotificationKind, brand string, instance *models.EventInstance, recipient *models.User) (string, string) {
	when := time.Unix(0, instance.StartUTC).UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	switch kind {
	case models.NotificationHostAssigned:
		return fmt.Sprintf("[%s] You are hosting: %s", brand, instance.Title),
			fmt.Sprintf("Hi %s,\n\nYou have been assigned to host \"%s\" on %s.\nThe attached invite has the details.\n", recipient.FullName, instance.Title, when)
	case models.NotificationHostRemoved:
		return fmt.Sprintf("[%s] You are no longer hosting: %s", brand, instance.Title),
			fmt.Sprintf("Hi %s,\n\nYou have been removed as host of \"%s\" on %s.\n", recipient.FullName, instance.Title, when)
	case models.NotificationEventCancelled:
		return fmt.Sprintf("[%s] Cancelled: %s", brand, instance.Title),
			fmt.Sprintf("Hi %s,\n\nThe session \"%s\" on %s has been cancelled.\n", recipient.FullName, instance.Title, when)
	case models.NotificationTimeChanged:
		return fmt.Sprintf("[%s] Time changed: %s", brand, instance.Title),
			fmt.Sprintf("Hi %s,\n\nThe session \"%s\" has moved. It now starts on %s.\nThe attached invite is up to date.\n", recipient.FullName, instance.Title, when)
	default:
		return fmt.Sprintf("[%s] %s", brand, instance.Title), ""
	}
}
