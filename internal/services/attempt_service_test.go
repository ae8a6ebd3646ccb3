package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/events"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

// Fakes covering the attempt engine's repository surface. Unused methods fall
// through to the embedded nil interface and panic if reached.

type fakeAttemptRepo struct {
	repositories.AttemptRepository
	attempt     *models.ExamAttempt
	finalScore  float64
	finalReason string
}

func (f *fakeAttemptRepo) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	if f.attempt == nil || f.attempt.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.attempt, nil
}

func (f *fakeAttemptRepo) FinalizeIfInProgress(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, scorePercent float64, reason string) (bool, error) {
	if f.attempt.Status != models.AttemptInProgress {
		return false, nil
	}
	f.attempt.Status = models.AttemptSubmitted
	f.attempt.SubmittedAt = &submittedAt
	f.attempt.ScorePercent = &scorePercent
	f.attempt.SubmitReason = &reason
	f.finalScore = scorePercent
	f.finalReason = reason
	return true, nil
}

type fakeAnswerRepo struct {
	repositories.AnswerRepository
	attempt *models.ExamAttempt
	rows    []*models.AttemptAnswer
	applied []repositories.AnswerGrade

	// When set, a submission finalizes the attempt just before the guarded
	// selection write runs, as a racing timeout poll on another instance would.
	submitBeforeWrite bool
}

func (f *fakeAnswerRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	return f.rows, nil
}

func (f *fakeAnswerRepo) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	for _, row := range f.rows {
		if row.AttemptID == attemptID && row.QuestionID == questionID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnswerRepo) UpdateSelection(ctx context.Context, tx *gorm.DB, answerID uint, selectedOptionID *uint) (bool, error) {
	if f.submitBeforeWrite {
		f.attempt.Status = models.AttemptSubmitted
		f.submitBeforeWrite = false
	}
	if f.attempt.Status != models.AttemptInProgress {
		return false, nil
	}
	for _, row := range f.rows {
		if row.ID == answerID {
			row.SelectedOptionID = selectedOptionID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAnswerRepo) ApplyGrades(ctx context.Context, tx *gorm.DB, grades []repositories.AnswerGrade) error {
	f.applied = append(f.applied, grades...)
	return nil
}

type fakeQuestionRepo struct {
	repositories.QuestionRepository
	questions map[uint]*models.Question
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	question, ok := f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return question, nil
}

type fakeRepository struct {
	repositories.Repository
	attempts  *fakeAttemptRepo
	answers   *fakeAnswerRepo
	questions *fakeQuestionRepo
}

func (f *fakeRepository) Attempt() repositories.AttemptRepository   { return f.attempts }
func (f *fakeRepository) Answer() repositories.AnswerRepository     { return f.answers }
func (f *fakeRepository) Question() repositories.QuestionRepository { return f.questions }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

// newAttemptFixture builds an untimed in-progress attempt with one MCQ whose
// correct option is 11. The attempt's preloaded Answers slice is a stale copy;
// the repository rows are the store of record.
func newAttemptFixture() (*fakeRepository, *models.ExamAttempt) {
	question := &models.Question{
		ID:   7,
		Type: models.MultipleChoice,
		Stem: "The quick ratio excludes which current asset?",
		Options: []models.Option{
			{ID: 11, QuestionID: 7, Text: "Inventory", IsCorrect: true, Position: 0},
			{ID: 12, QuestionID: 7, Text: "Receivables", Position: 1},
		},
	}

	attempt := &models.ExamAttempt{
		ID:        3,
		ExamID:    5,
		UserID:    "user-1",
		Status:    models.AttemptInProgress,
		StartedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		Exam:      models.Exam{ID: 5, Name: "Level I Mock", PassScorePercent: 70},
	}
	row := &models.AttemptAnswer{ID: 100, AttemptID: 3, QuestionID: 7, Position: 0, Question: *question}
	attempt.Answers = []models.AttemptAnswer{*row}

	repo := &fakeRepository{
		attempts:  &fakeAttemptRepo{attempt: attempt},
		answers:   &fakeAnswerRepo{attempt: attempt, rows: []*models.AttemptAnswer{row}},
		questions: &fakeQuestionRepo{questions: map[uint]*models.Question{7: question}},
	}
	return repo, attempt
}

func newTestAttemptService(repo repositories.Repository, publisher events.EventPublisher) *attemptService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAttemptService(repo, publisher, validator.New(), logger).(*attemptService)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestRecordAnswerRejectedWhenSubmissionWinsRace(t *testing.T) {
	repo, attempt := newAttemptFixture()
	repo.answers.submitBeforeWrite = true

	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestAttemptService(repo, publisher)

	optionID := uint(11)
	_, err := svc.RecordAnswer(context.Background(), attempt.ID, &RecordAnswerRequest{
		QuestionID:       7,
		SelectedOptionID: &optionID,
	}, "user-1")

	if !errors.Is(err, ErrAttemptNotActive) {
		t.Fatalf("RecordAnswer() error = %v, want ErrAttemptNotActive", err)
	}
	if repo.answers.rows[0].SelectedOptionID != nil {
		t.Error("selection must not land once the attempt is finalized")
	}
}

func TestRecordAnswerWritesSelection(t *testing.T) {
	repo, attempt := newAttemptFixture()

	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestAttemptService(repo, publisher)

	optionID := uint(12)
	resp, err := svc.RecordAnswer(context.Background(), attempt.ID, &RecordAnswerRequest{
		QuestionID:       7,
		SelectedOptionID: &optionID,
	}, "user-1")
	if err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}
	if resp == nil {
		t.Fatal("RecordAnswer() returned no response")
	}

	got := repo.answers.rows[0].SelectedOptionID
	if got == nil || *got != optionID {
		t.Errorf("stored selection = %v, want %d", got, optionID)
	}
}

func TestSubmitGradesLatestRecordedSelections(t *testing.T) {
	repo, attempt := newAttemptFixture()

	// Answered after the attempt rows above were loaded: only the store holds
	// the selection, the in-memory snapshot is stale and unanswered.
	correct := uint(11)
	repo.answers.rows[0].SelectedOptionID = &correct

	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestAttemptService(repo, publisher)

	resp, err := svc.Submit(context.Background(), attempt.ID, "user-1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if repo.attempts.finalScore != 100 {
		t.Errorf("finalized score = %v, want 100 from the stored selection", repo.attempts.finalScore)
	}
	if repo.attempts.finalReason != models.SubmitReasonManual {
		t.Errorf("submit reason = %q, want %q", repo.attempts.finalReason, models.SubmitReasonManual)
	}
	if resp.ScorePercent == nil || *resp.ScorePercent != 100 {
		t.Errorf("response score = %v, want 100", resp.ScorePercent)
	}

	if len(repo.answers.applied) != 1 {
		t.Fatalf("applied grades = %d, want 1", len(repo.answers.applied))
	}
	if repo.answers.applied[0].IsCorrect == nil || !*repo.answers.applied[0].IsCorrect {
		t.Error("the stored selection should grade correct")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Topic != events.TopicAttemptSubmitted {
		t.Errorf("published events = %v, want one on %s", published, events.TopicAttemptSubmitted)
	}
}
