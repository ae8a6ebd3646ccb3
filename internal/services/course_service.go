package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewCourseService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, creatorID string) (*models.Course, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if err := s.requireContentManager(ctx, creatorID, 0, "create"); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:        req.Name,
		Level:       req.Level,
		Description: req.Description,
		Active:      true,
		CreatedBy:   creatorID,
	}
	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("course created", "course_id", course.ID, "name", course.Name, "created_by", creatorID)
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithTopics(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Active != nil {
		course.Active = *req.Active
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course %d: %w", id, err)
	}

	s.logger.Info("course updated", "course_id", course.ID, "updated_by", userID)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.repo.Course().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to load course %d: %w", id, err)
	}

	if err := s.requireContentManager(ctx, userID, id, "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course %d: %w", id, err)
	}

	s.logger.Info("course deleted", "course_id", id, "deleted_by", userID)
	return nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	page, size := pageFromFilters(filters.Limit, filters.Offset)
	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}

func (s *courseService) AddTopic(ctx context.Context, courseID uint, req *CreateTopicRequest, userID string) (*models.Topic, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", courseID, err)
	}

	if err := s.requireContentManager(ctx, userID, courseID, "update"); err != nil {
		return nil, err
	}

	topic := &models.Topic{
		CourseID: courseID,
		Name:     req.Name,
		Weight:   req.Weight,
		Position: req.Position,
	}
	if err := s.repo.Topic().Create(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	s.logger.Info("topic added", "course_id", courseID, "topic_id", topic.ID, "name", topic.Name)
	return topic, nil
}

func (s *courseService) RemoveTopic(ctx context.Context, courseID, topicID uint, userID string) error {
	topic, err := s.repo.Topic().GetByID(ctx, nil, topicID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTopicNotFound
		}
		return fmt.Errorf("failed to load topic %d: %w", topicID, err)
	}
	if topic.CourseID != courseID {
		return ErrTopicNotFound
	}

	if err := s.requireContentManager(ctx, userID, courseID, "update"); err != nil {
		return err
	}

	if err := s.repo.Topic().Delete(ctx, nil, topicID); err != nil {
		return fmt.Errorf("failed to delete topic %d: %w", topicID, err)
	}

	s.logger.Info("topic removed", "course_id", courseID, "topic_id", topicID)
	return nil
}

func (s *courseService) requireContentManager(ctx context.Context, userID string, resourceID uint, action string) error {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(userID, resourceID, "course", action, "requires editor or admin role")
		}
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !user.Role.CanManageContent() {
		return NewPermissionError(userID, resourceID, "course", action, "requires editor or admin role")
	}
	return nil
}
