package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/config"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/utils"
	"github.com/cfaprep/exam-service/internal/validator"
)

type HandlerManager struct {
	courseHandler   *CourseHandler
	questionHandler *QuestionHandler
	examHandler     *ExamHandler
	attemptHandler  *AttemptHandler
	billingHandler  *BillingHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo, logger)

	return &HandlerManager{
		courseHandler:   NewCourseHandler(serviceManager.Course(), validator, logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), validator, logger),
		examHandler:     NewExamHandler(serviceManager.Exam(), validator, logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		billingHandler:  NewBillingHandler(serviceManager.Billing(), validator, logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	editors := hm.authMiddleware.RequireRoleMiddleware(models.RoleEditor)
	admins := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	v1 := router.Group("/api/v1")

	// Payment webhooks authenticate by provider signature, not user token; the
	// service verifies idempotency against the stored provider reference.
	v1.POST("/billing/webhooks", hm.billingHandler.PaymentWebhook)

	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course catalog
		courses := v1.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)

			courses.POST("", editors, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", editors, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", editors, hm.courseHandler.DeleteCourse)
			courses.POST("/:id/topics", editors, hm.courseHandler.AddTopic)
			courses.DELETE("/:id/topics/:topic_id", editors, hm.courseHandler.RemoveTopic)
		}

		// Question bank - content managers only
		questions := v1.Group("/questions")
		questions.Use(editors)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)

			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
		}

		// Exams
		exams := v1.Group("/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)

			exams.POST("", editors, hm.examHandler.CreateExam)
			exams.PUT("/:id", editors, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", editors, hm.examHandler.DeleteExam)

			exams.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		// Attempt engine
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.RecordAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.GetTimeRemaining)
			attempts.GET("/:id/analytics", hm.attemptHandler.GetAttemptAnalytics)
		}

		// Billing
		billing := v1.Group("/billing")
		{
			billing.GET("/products", hm.billingHandler.ListProducts)
			billing.GET("/subscription", hm.billingHandler.GetMySubscription)

			billing.POST("/products", admins, hm.billingHandler.CreateProduct)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})
}
