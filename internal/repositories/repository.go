package repositories

import "context"

// Repository aggregates all domain repository interfaces
type Repository interface {
	// Catalog domain
	Course() CourseRepository
	Topic() TopicRepository

	// Question domain
	Question() QuestionRepository

	// Exam domain
	Exam() ExamRepository
	ExamQuestion() ExamQuestionRepository

	// Attempt domain
	Attempt() AttemptRepository
	Answer() AnswerRepository

	// User domain
	User() UserRepository

	// Billing domain
	Billing() BillingRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error

	GetRepository() Repository

	HealthCheck(ctx context.Context) error

	Shutdown(ctx context.Context) error
}
