package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cfaprep/exam-service/internal/events"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

// attemptService drives the attempt lifecycle: idempotent start, answer
// recording, timer evaluation and at-most-once submission.
type attemptService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger

	// Injectable for deterministic timer tests.
	now func() time.Time
}

func NewAttemptService(repo repositories.Repository, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) AttemptService {
	return &attemptService{
		repo:      repo,
		publisher: publisher,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// Start opens an attempt for the user on the exam. If the user already has an
// in-progress attempt on that exam it is returned unchanged, so retried start
// requests converge on the same attempt. A new attempt freezes the exam's
// current question list into answer rows.
func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, userID string) (*AttemptResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	now := s.now().UTC()

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam %d: %w", req.ExamID, err)
	}

	if !exam.AvailableAt(now) {
		return nil, ErrExamNotAvailable
	}

	// Idempotent replay: an open attempt wins over creating a new one.
	existing, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, userID, exam.ID)
	if err == nil {
		resp, respErr := s.loadResponse(ctx, existing.ID, now)
		if respErr != nil {
			return nil, respErr
		}
		resp.Resumed = true
		return resp, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	if len(exam.Questions) == 0 {
		return nil, ErrExamNoQuestions
	}

	var (
		attempt *models.ExamAttempt
		created bool
	)
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Re-check inside the transaction so two racing starts cannot both
		// create an attempt.
		open, txErr := txRepo.Attempt().GetActiveAttempt(ctx, nil, userID, exam.ID)
		if txErr == nil {
			attempt = open
			return nil
		}
		if !repositories.IsNotFoundError(txErr) {
			return txErr
		}

		attempt = &models.ExamAttempt{
			ExamID:    exam.ID,
			UserID:    userID,
			Status:    models.AttemptInProgress,
			StartedAt: now,
		}
		if txErr := txRepo.Attempt().Create(ctx, nil, attempt); txErr != nil {
			return fmt.Errorf("failed to create attempt: %w", txErr)
		}

		answers := snapshotAnswers(attempt.ID, exam.Questions)
		if txErr := txRepo.Answer().CreateBatch(ctx, nil, answers); txErr != nil {
			return fmt.Errorf("failed to snapshot questions: %w", txErr)
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.publishEvent(ctx, events.TopicAttemptStarted, events.NewEvent("attempt.started", events.AttemptStartedEvent{
			AttemptID: attempt.ID,
			ExamID:    exam.ID,
			UserID:    userID,
			StartedAt: attempt.StartedAt,
		}))

		s.logger.Info("attempt started",
			"attempt_id", attempt.ID, "exam_id", exam.ID, "user_id", userID,
			"questions", len(exam.Questions))
	}

	resp, err := s.loadResponse(ctx, attempt.ID, now)
	if err != nil {
		return nil, err
	}
	resp.Resumed = !created
	return resp, nil
}

// GetByID returns the attempt as its owner may see it. While the attempt is
// in progress the answer key and grades are stripped; an expired timed attempt
// is finalized with the timeout reason before being returned.
func (s *attemptService) GetByID(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error) {
	now := s.now().UTC()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptInProgress && TimeExpired(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now) {
		return s.finalize(ctx, attempt, models.SubmitReasonTimeout, now)
	}

	return buildAttemptResponse(attempt, now), nil
}

// RecordAnswer overwrites the selection for one question of the attempt's
// snapshot. A nil SelectedOptionID clears the answer. Recording is rejected
// once the attempt is submitted or its time has run out.
func (s *attemptService) RecordAnswer(ctx context.Context, attemptID uint, req *RecordAnswerRequest, userID string) (*AttemptResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	now := s.now().UTC()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptAlreadySubmitted
	}

	if TimeExpired(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now) {
		if _, ferr := s.finalize(ctx, attempt, models.SubmitReasonTimeout, now); ferr != nil {
			return nil, ferr
		}
		return nil, ErrAttemptTimeExpired
	}

	answer, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, nil, attempt.ID, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotInAttempt
		}
		return nil, fmt.Errorf("failed to load answer row: %w", err)
	}

	if req.SelectedOptionID != nil {
		if err := s.checkOptionBelongs(ctx, req.QuestionID, *req.SelectedOptionID); err != nil {
			return nil, err
		}
	}

	// The write serializes against submission through the repository guard;
	// the status check above is only a fast path.
	ok, err := s.repo.Answer().UpdateSelection(ctx, nil, answer.ID, req.SelectedOptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}
	if !ok {
		// A concurrent submission finalized the attempt between the status
		// check and the write.
		return nil, ErrAttemptNotActive
	}

	s.logger.Debug("answer recorded",
		"attempt_id", attempt.ID, "question_id", req.QuestionID,
		"cleared", req.SelectedOptionID == nil)

	return s.loadResponse(ctx, attempt.ID, now)
}

// Submit finalizes the attempt manually. Submitting an already finalized
// attempt returns it unchanged; concurrent submissions converge on a single
// winner through the repository's compare-and-set.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, userID string) (*AttemptResponse, error) {
	now := s.now().UTC()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status != models.AttemptInProgress {
		return buildAttemptResponse(attempt, now), nil
	}

	reason := models.SubmitReasonManual
	if TimeExpired(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now) {
		reason = models.SubmitReasonTimeout
	}

	return s.finalize(ctx, attempt, reason, now)
}

// TimeRemaining reports the derived timer state. An expired in-progress
// attempt is finalized as a side effect so the stored state catches up with
// the timer.
func (s *attemptService) TimeRemaining(ctx context.Context, attemptID uint, userID string) (*TimeRemainingResponse, error) {
	now := s.now().UTC()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	remaining := RemainingSeconds(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now)
	expired := TimeExpired(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now)

	if expired && attempt.Status == models.AttemptInProgress {
		if _, ferr := s.finalize(ctx, attempt, models.SubmitReasonTimeout, now); ferr != nil {
			return nil, ferr
		}
	}

	return &TimeRemainingResponse{
		AttemptID:        attempt.ID,
		RemainingSeconds: remaining,
		Expired:          expired,
	}, nil
}

// Analytics breaks a submitted attempt down by topic
func (s *attemptService) Analytics(ctx context.Context, attemptID uint, userID string) (*AttemptAnalytics, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	if attempt.Status != models.AttemptSubmitted {
		return nil, NewBusinessRuleError("attempt_not_submitted", "analytics are available after submission")
	}

	byTopic, err := s.repo.Answer().GetTopicAccuracy(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate topic accuracy: %w", err)
	}

	analytics := &AttemptAnalytics{
		AttemptID:    attempt.ID,
		ScorePercent: attempt.ScorePercent,
		ByTopic:      byTopic,
	}
	if attempt.ScorePercent != nil {
		passed := PassedScore(*attempt.ScorePercent, attempt.Exam.PassScorePercent)
		analytics.Passed = &passed
	}
	for _, answer := range attempt.Answers {
		if answer.Answered() {
			analytics.Answered++
		}
		if answer.IsCorrect != nil {
			analytics.Scored++
			if *answer.IsCorrect {
				analytics.Correct++
			}
		}
	}

	return analytics, nil
}

// List returns the user's own attempts
func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters, userID string) (*AttemptListResponse, error) {
	// Listing is always scoped to the caller.
	filters.UserID = &userID

	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	page, size := pageFromFilters(filters.Limit, filters.Offset)
	return &AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}

// finalize re-reads and grades the answer rows inside the submission
// transaction, then flips the attempt to submitted through a compare-and-set.
// The loser of a concurrent race re-reads the finalized row,
// so every caller converges on the same result and the submitted event is
// published exactly once.
func (s *attemptService) finalize(ctx context.Context, attempt *models.ExamAttempt, reason string, now time.Time) (*AttemptResponse, error) {
	var (
		won   bool
		score ScoreResult
	)
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Grade a transaction-scoped re-read, not the snapshot the caller
		// loaded earlier: a selection recorded after that load still counts.
		rows, txErr := txRepo.Answer().GetByAttempt(ctx, nil, attempt.ID)
		if txErr != nil {
			return txErr
		}
		answers := make([]models.AttemptAnswer, len(rows))
		for i, row := range rows {
			answers[i] = *row
		}
		score = ScoreAttempt(answers)

		ok, txErr := txRepo.Attempt().FinalizeIfInProgress(ctx, nil, attempt.ID, now, score.ScorePercent, reason)
		if txErr != nil {
			return txErr
		}
		won = ok
		if !ok {
			return nil
		}
		return txRepo.Answer().ApplyGrades(ctx, nil, score.Grades)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize attempt %d: %w", attempt.ID, err)
	}

	if won {
		s.publishEvent(ctx, events.TopicAttemptSubmitted, events.NewEvent("attempt.submitted", events.AttemptSubmittedEvent{
			AttemptID:    attempt.ID,
			ExamID:       attempt.ExamID,
			UserID:       attempt.UserID,
			ScorePercent: score.ScorePercent,
			Passed:       PassedScore(score.ScorePercent, attempt.Exam.PassScorePercent),
			SubmitReason: reason,
			SubmittedAt:  now,
		}))

		s.logger.Info("attempt submitted",
			"attempt_id", attempt.ID, "exam_id", attempt.ExamID, "user_id", attempt.UserID,
			"score_percent", score.ScorePercent, "reason", reason)
	} else {
		s.logger.Debug("attempt already finalized by a concurrent submission", "attempt_id", attempt.ID)
	}

	return s.loadResponse(ctx, attempt.ID, now)
}

// getOwnedAttempt loads the attempt with its answer snapshot and checks the
// caller owns it
func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, userID string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt %d: %w", attemptID, err)
	}

	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "access", "attempts are visible to their owner only")
	}

	return attempt, nil
}

func (s *attemptService) checkOptionBelongs(ctx context.Context, questionID, optionID uint) error {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to load question %d: %w", questionID, err)
	}

	if !question.Type.IsOptionBased() {
		return ErrOptionNotInQuestion
	}
	for _, option := range question.Options {
		if option.ID == optionID {
			return nil
		}
	}
	return ErrOptionNotInQuestion
}

func (s *attemptService) loadResponse(ctx context.Context, attemptID uint, now time.Time) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attempt %d: %w", attemptID, err)
	}
	return buildAttemptResponse(attempt, now), nil
}

// publishEvent logs publish failures instead of failing the operation
func (s *attemptService) publishEvent(ctx context.Context, topic string, event events.Event) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "event_type", event.Type, "error", err)
	}
}
