package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewExamService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) ExamService {
	return &examService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if err := s.requireContentManager(ctx, creatorID, 0, "create"); err != nil {
		return nil, err
	}

	if req.StartsAt != nil && req.EndsAt != nil && !req.StartsAt.Before(*req.EndsAt) {
		return nil, NewBusinessRuleError("exam_window", "starts_at must precede ends_at")
	}

	exam := &models.Exam{
		Name:             req.Name,
		Type:             req.Type,
		Level:            req.Level,
		CourseID:         req.CourseID,
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassScorePercent: models.DefaultPassScorePercent,
		Active:           true,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		CreatedBy:        creatorID,
	}
	if req.PassScorePercent != nil {
		exam.PassScorePercent = *req.PassScorePercent
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if txErr := txRepo.Exam().Create(ctx, nil, exam); txErr != nil {
			return fmt.Errorf("failed to create exam: %w", txErr)
		}
		if len(req.QuestionIDs) > 0 {
			return s.replaceQuestions(ctx, txRepo, exam.ID, req.QuestionIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("exam created", "exam_id", exam.ID, "name", exam.Name, "created_by", creatorID)

	return s.GetByIDWithQuestions(ctx, exam.ID, creatorID)
}

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam %d: %w", id, err)
	}

	return s.buildResponse(ctx, exam, userID)
}

func (s *examService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam %d: %w", id, err)
	}

	exam.QuestionCount = len(exam.Questions)
	return s.buildResponse(ctx, exam, userID)
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.TimeLimitMinutes != nil {
		exam.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.PassScorePercent != nil {
		exam.PassScorePercent = *req.PassScorePercent
	}
	if req.Active != nil {
		exam.Active = *req.Active
	}
	if req.StartsAt != nil {
		exam.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		exam.EndsAt = req.EndsAt
	}
	if exam.StartsAt != nil && exam.EndsAt != nil && !exam.StartsAt.Before(*exam.EndsAt) {
		return nil, NewBusinessRuleError("exam_window", "starts_at must precede ends_at")
	}

	// Question list edits never touch running attempts; those hold their own
	// snapshot.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if txErr := txRepo.Exam().Update(ctx, nil, exam); txErr != nil {
			return fmt.Errorf("failed to update exam: %w", txErr)
		}
		if req.QuestionIDs != nil {
			return s.replaceQuestions(ctx, txRepo, exam.ID, req.QuestionIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("exam updated", "exam_id", exam.ID, "updated_by", userID)

	return s.GetByIDWithQuestions(ctx, exam.ID, userID)
}

func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.repo.Exam().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to load exam %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "delete"); err != nil {
		return err
	}

	hasAttempts, err := s.repo.Exam().HasAttempts(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check exam attempts: %w", err)
	}
	if hasAttempts {
		return ErrExamHasAttempts
	}

	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete exam %d: %w", id, err)
	}

	s.logger.Info("exam deleted", "exam_id", id, "deleted_by", userID)
	return nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error) {
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, shapeExamResponse(exam, user, now))
	}

	page, size := pageFromFilters(filters.Limit, filters.Offset)
	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

func (s *examService) buildResponse(ctx context.Context, exam *models.Exam, userID string) (*ExamResponse, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return shapeExamResponse(exam, user, time.Now().UTC()), nil
}

func shapeExamResponse(exam *models.Exam, user *models.User, now time.Time) *ExamResponse {
	resp := &ExamResponse{
		Exam:    exam,
		CanTake: exam.AvailableAt(now),
	}
	if user != nil {
		resp.CanEdit = user.Role.CanManageContent() && (user.Role == models.RoleAdmin || exam.CreatedBy == user.ID)
	}

	// Students never see the answer key on exam reads.
	if user == nil || !user.Role.CanManageContent() {
		for i := range exam.Questions {
			exam.Questions[i].Question = *sanitizeQuestion(&exam.Questions[i].Question)
		}
	}

	return resp
}

// replaceQuestions verifies every referenced question exists before rewriting
// the list in request order
func (s *examService) replaceQuestions(ctx context.Context, txRepo repositories.Repository, examID uint, questionIDs []uint) error {
	questions, err := txRepo.Question().GetByIDs(ctx, nil, questionIDs)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) != len(questionIDs) {
		return ErrQuestionNotFound
	}

	order := make([]repositories.QuestionOrder, len(questionIDs))
	for i, qid := range questionIDs {
		order[i] = repositories.QuestionOrder{QuestionID: qid, Position: i}
	}
	if err := txRepo.ExamQuestion().Replace(ctx, nil, examID, order); err != nil {
		return fmt.Errorf("failed to replace exam questions: %w", err)
	}
	return nil
}

func (s *examService) requireContentManager(ctx context.Context, userID string, resourceID uint, action string) error {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !user.Role.CanManageContent() {
		return NewPermissionError(userID, resourceID, "exam", action, "requires editor or admin role")
	}
	return nil
}

func (s *examService) lookupUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}
