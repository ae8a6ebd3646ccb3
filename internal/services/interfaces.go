package services

import (
	"context"
	"time"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

// ===== COURSE RELATED DTOs =====

type CreateCourseRequest struct {
	Name        string             `json:"name" validate:"required,min=1,max=200"`
	Level       models.CourseLevel `json:"level" validate:"required,oneof=level_1 level_2 level_3"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
}

type UpdateCourseRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=200"`
	Level       *models.CourseLevel `json:"level" validate:"omitempty,oneof=level_1 level_2 level_3"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	Active      *bool               `json:"active"`
}

type CreateTopicRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Weight   int    `json:"weight" validate:"min=0,max=100"`
	Position int    `json:"position" validate:"min=0"`
}

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// ===== QUESTION RELATED DTOs =====

type OptionRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position" validate:"min=0"`
}

type CreateQuestionRequest struct {
	Type         models.QuestionType `json:"type" validate:"required,oneof=mcq vignette_mcq constructed_response"`
	Stem         string              `json:"stem" validate:"required"`
	VignetteText *string             `json:"vignette_text"`
	TopicID      *uint               `json:"topic_id"`
	Tags         []string            `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	Explanation  *string             `json:"explanation" validate:"omitempty,max=2000"`
	Options      []OptionRequest     `json:"options" validate:"omitempty,dive"`
}

type UpdateQuestionRequest struct {
	Stem         *string         `json:"stem" validate:"omitempty,min=1"`
	VignetteText *string         `json:"vignette_text"`
	TopicID      *uint           `json:"topic_id"`
	Tags         []string        `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	Explanation  *string         `json:"explanation" validate:"omitempty,max=2000"`
	Options      []OptionRequest `json:"options" validate:"omitempty,dive"`
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

// ===== EXAM RELATED DTOs =====

type CreateExamRequest struct {
	Name             string             `json:"name" validate:"required,min=1,max=200"`
	Type             models.ExamType    `json:"type" validate:"required,oneof=course quiz"`
	Level            models.CourseLevel `json:"level" validate:"required,oneof=level_1 level_2 level_3"`
	CourseID         *uint              `json:"course_id"`
	TimeLimitMinutes *int               `json:"time_limit_minutes" validate:"omitempty,exam_time_limit"`
	PassScorePercent *int               `json:"pass_score_percent" validate:"omitempty,score_percent"`
	StartsAt         *time.Time         `json:"starts_at"`
	EndsAt           *time.Time         `json:"ends_at"`
	QuestionIDs      []uint             `json:"question_ids"`
}

type UpdateExamRequest struct {
	Name             *string    `json:"name" validate:"omitempty,min=1,max=200"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" validate:"omitempty,exam_time_limit"`
	PassScorePercent *int       `json:"pass_score_percent" validate:"omitempty,score_percent"`
	Active           *bool      `json:"active"`
	StartsAt         *time.Time `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at"`
	QuestionIDs      []uint     `json:"question_ids"`
}

type ExamResponse struct {
	*models.Exam
	CanEdit bool `json:"can_edit"`
	CanTake bool `json:"can_take"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// ===== ATTEMPT RELATED DTOs =====

type StartAttemptRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`
}

// RecordAnswerRequest records or clears a selection for one question of the
// attempt. A nil SelectedOptionID clears the answer.
type RecordAnswerRequest struct {
	QuestionID       uint  `json:"question_id" validate:"required"`
	SelectedOptionID *uint `json:"selected_option_id"`
}

type AttemptAnswerView struct {
	QuestionID       uint             `json:"question_id"`
	Position         int              `json:"position"`
	SelectedOptionID *uint            `json:"selected_option_id"`
	IsCorrect        *bool            `json:"is_correct,omitempty"`
	Question         *models.Question `json:"question"`
}

type AttemptResponse struct {
	*models.ExamAttempt
	RemainingSeconds *int                `json:"remaining_seconds"`
	Passed           *bool               `json:"passed,omitempty"`
	AnswerViews      []AttemptAnswerView `json:"answer_views,omitempty"`

	// Resumed is true when a start request returned an already open attempt
	// instead of creating one.
	Resumed bool `json:"resumed,omitempty"`
}

type AttemptListResponse struct {
	Attempts []*models.ExamAttempt `json:"attempts"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	Size     int                   `json:"size"`
}

type TimeRemainingResponse struct {
	AttemptID        uint `json:"attempt_id"`
	RemainingSeconds *int `json:"remaining_seconds"`
	Expired          bool `json:"expired"`
}

type AttemptAnalytics struct {
	AttemptID    uint                         `json:"attempt_id"`
	ScorePercent *float64                     `json:"score_percent"`
	Passed       *bool                        `json:"passed"`
	Answered     int                          `json:"answered"`
	Correct      int                          `json:"correct"`
	Scored       int                          `json:"scored"`
	ByTopic      []repositories.TopicAccuracy `json:"by_topic"`
}

// ===== BILLING RELATED DTOs =====

type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	PriceCents   int64  `json:"price_cents" validate:"min=0"`
	Currency     string `json:"currency" validate:"required,len=3"`
	DurationDays int    `json:"duration_days" validate:"required,min=1"`
}

// PaymentWebhookRequest is the normalized form of the provider callbacks
type PaymentWebhookRequest struct {
	Provider    models.PaymentProvider `json:"provider" validate:"required,oneof=stripe flutterwave payfast"`
	ProviderRef string                 `json:"provider_ref" validate:"required,max=255"`
	UserID      string                 `json:"user_id" validate:"required"`
	ProductID   uint                   `json:"product_id" validate:"required"`
	AmountCents int64                  `json:"amount_cents"`
	Currency    string                 `json:"currency" validate:"omitempty,len=3"`
	Payload     map[string]interface{} `json:"payload"`
}

type WebhookResult struct {
	PaymentEventID uint  `json:"payment_event_id"`
	SubscriptionID *uint `json:"subscription_id,omitempty"`
	Duplicate      bool  `json:"duplicate"`
}

// ===== IMPORT/EXPORT DTOs =====

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest, creatorID string) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)

	AddTopic(ctx context.Context, courseID uint, req *CreateTopicRequest, userID string) (*models.Topic, error)
	RemoveTopic(ctx context.Context, courseID, topicID uint, userID string) error
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error)
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error)
}

// AttemptService is the exam attempt engine. Start and Submit are idempotent
// per (user, exam) and per attempt respectively.
type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error)
	GetByID(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error)
	RecordAnswer(ctx context.Context, attemptID uint, req *RecordAnswerRequest, userID string) (*AttemptResponse, error)
	Submit(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error)
	TimeRemaining(ctx context.Context, attemptID uint, userID string) (*TimeRemainingResponse, error)
	Analytics(ctx context.Context, attemptID uint, userID string) (*AttemptAnalytics, error)
	List(ctx context.Context, filters repositories.AttemptFilters, userID string) (*AttemptListResponse, error)
}

type BillingService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, userID string) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	HandlePaymentWebhook(ctx context.Context, req *PaymentWebhookRequest) (*WebhookResult, error)
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	ExpireSubscriptions(ctx context.Context) (int64, error)
}

type ImportExportService interface {
	ImportQuestionsXLSX(ctx context.Context, data []byte, creatorID string) (*ImportResult, error)
	ExportQuestionsXLSX(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error)
}

// ServiceManager wires and owns all service instances
type ServiceManager interface {
	Course() CourseService
	Question() QuestionService
	Exam() ExamService
	Attempt() AttemptService
	Billing() BillingService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
