package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cfaprep/exam-service/internal/events"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

// serviceManager implements ServiceManager
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger

	// Service instances
	courseService       CourseService
	questionService     QuestionService
	examService         ExamService
	attemptService      AttemptService
	billingService      BillingService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies
func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

// Initialize wires up all services
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("initializing service manager")

	sm.courseService = NewCourseService(sm.repo, sm.validator, sm.logger)
	sm.questionService = NewQuestionService(sm.repo, sm.validator, sm.logger)
	sm.examService = NewExamService(sm.repo, sm.validator, sm.logger)
	sm.attemptService = NewAttemptService(sm.repo, sm.publisher, sm.validator, sm.logger)
	sm.billingService = NewBillingService(sm.repo, sm.publisher, sm.validator, sm.logger)
	sm.importExportService = NewImportExportService(sm.repo, sm.questionService, sm.validator, sm.logger)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("service manager initialized")

	return nil
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.courseService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.questionService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.examService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.attemptService
}

func (sm *serviceManager) Billing() BillingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.billingService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.importExportService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("shutting down service manager")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("service manager shut down")

	return nil
}
