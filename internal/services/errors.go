package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses in the handler layer
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotAvailable = errors.New("exam is not available")
	ErrExamHasAttempts  = errors.New("exam has recorded attempts")
	ErrExamNoQuestions  = errors.New("exam has no questions")

	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionInUse        = errors.New("question is used in exams")
	ErrQuestionNotInAttempt = errors.New("question is not part of the attempt")
	ErrOptionNotInQuestion  = errors.New("option does not belong to the question")

	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptNotActive        = errors.New("attempt is not in progress")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptTimeExpired      = errors.New("attempt time has expired")

	ErrCourseNotFound = errors.New("course not found")
	ErrTopicNotFound  = errors.New("topic not found")

	ErrProductNotFound      = errors.New("product not found")
	ErrProductInactive      = errors.New("product is not active")
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// PermissionError signals the caller may not perform the operation on the
// resource
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError signals a domain rule violation that is not a simple
// validation failure
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}
