package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewQuestionService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) QuestionService {
	return &questionService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if err := s.requireContentManager(ctx, creatorID, 0, "create"); err != nil {
		return nil, err
	}

	if err := checkOptionSet(req.Type, req.Options); err != nil {
		return nil, err
	}

	tags, err := marshalTags(req.Tags)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		Type:         req.Type,
		Stem:         req.Stem,
		VignetteText: req.VignetteText,
		TopicID:      req.TopicID,
		Tags:         tags,
		Explanation:  req.Explanation,
		CreatedBy:    creatorID,
		Options:      buildOptions(req.Options),
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("question created", "question_id", question.ID, "type", question.Type, "created_by", creatorID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question %d: %w", id, err)
	}
	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	if req.Stem != nil {
		question.Stem = *req.Stem
	}
	if req.VignetteText != nil {
		question.VignetteText = req.VignetteText
	}
	if req.TopicID != nil {
		question.TopicID = req.TopicID
	}
	if req.Tags != nil {
		tags, err := marshalTags(req.Tags)
		if err != nil {
			return nil, err
		}
		question.Tags = tags
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if txErr := txRepo.Question().Update(ctx, nil, question); txErr != nil {
			return fmt.Errorf("failed to update question: %w", txErr)
		}
		if req.Options != nil {
			if txErr := checkOptionSet(question.Type, req.Options); txErr != nil {
				return txErr
			}
			return txRepo.Question().ReplaceOptions(ctx, nil, question.ID, buildOptions(req.Options))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("question updated", "question_id", question.ID, "updated_by", userID)
	return s.repo.Question().GetByID(ctx, nil, question.ID)
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.repo.Question().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to load question %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "delete"); err != nil {
		return err
	}

	inUse, err := s.repo.Question().IsUsedInExams(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check question usage: %w", err)
	}
	if inUse {
		return ErrQuestionInUse
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question %d: %w", id, err)
	}

	s.logger.Info("question deleted", "question_id", id, "deleted_by", userID)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error) {
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	page, size := pageFromFilters(filters.Limit, filters.Offset)
	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      page,
		Size:      size,
	}, nil
}

// checkOptionSet enforces the option invariants per question type: option
// based questions need at least two options with exactly one correct,
// constructed response questions carry none.
func checkOptionSet(qType models.QuestionType, options []OptionRequest) error {
	if !qType.IsOptionBased() {
		if len(options) > 0 {
			return NewBusinessRuleError("question_options", "constructed response questions do not take options")
		}
		return nil
	}

	if len(options) < 2 {
		return NewBusinessRuleError("question_options", "option based questions need at least two options")
	}

	correct := 0
	for _, option := range options {
		if option.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return NewBusinessRuleError("question_options", "exactly one option must be marked correct")
	}
	return nil
}

func buildOptions(reqs []OptionRequest) []models.Option {
	options := make([]models.Option, len(reqs))
	for i, req := range reqs {
		options[i] = models.Option{
			Text:      req.Text,
			IsCorrect: req.IsCorrect,
			Position:  req.Position,
		}
	}
	return options
}

func marshalTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (s *questionService) requireContentManager(ctx context.Context, userID string, resourceID uint, action string) error {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(userID, resourceID, "question", action, "requires editor or admin role")
		}
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !user.Role.CanManageContent() {
		return NewPermissionError(userID, resourceID, "question", action, "requires editor or admin role")
	}
	return nil
}
