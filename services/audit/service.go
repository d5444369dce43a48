package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// ResourceUser is the resource type recorded for user lifecycle events.
const ResourceUser = "user"

// insertTimeout bounds a single audit write.
const insertTimeout = 5 * time.Second

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service.
// Waits for all pending events to be processed.
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	// Closing under the write lock keeps LogEvent from sending on a closed channel.
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. When the buffer is full the
// event is dropped and an error returned.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("resource_id", event.Log.ResourceID))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("resource_id", event.Log.ResourceID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(s.ctx, insertTimeout)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

func (s *AuditService) logUserEvent(action models.AuditAction, userID string, meta models.RequestMeta, details interface{}) error {
	log := models.NewAuditLog(action, ResourceUser, userID).
		WithActor(meta.ActorID).
		WithRequest(meta)
	if details != nil {
		log.WithDetails(details)
	}
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserCreated logs a user creation event
func (s *AuditService) LogUserCreated(user *models.User, meta models.RequestMeta) error {
	return s.logUserEvent(models.AuditActionUserCreated, user.ID, meta, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
}

// LogUserUpdated logs a user update event with the names of the changed fields
func (s *AuditService) LogUserUpdated(user *models.User, meta models.RequestMeta, changed []string) error {
	return s.logUserEvent(models.AuditActionUserUpdated, user.ID, meta, map[string]interface{}{
		"changes": changed,
	})
}

// LogUserDeleted logs a user deletion event
func (s *AuditService) LogUserDeleted(userID string, meta models.RequestMeta) error {
	return s.logUserEvent(models.AuditActionUserDeleted, userID, meta, nil)
}

// LogUserRoleChanged logs a role assignment
func (s *AuditService) LogUserRoleChanged(userID string, from, to auth.Role, meta models.RequestMeta) error {
	return s.logUserEvent(models.AuditActionUserRoleChanged, userID, meta, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}
