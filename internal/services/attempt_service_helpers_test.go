package services

import (
	"testing"
	"time"

	"github.com/cfaprep/exam-service/internal/models"
)

func TestSnapshotAnswers(t *testing.T) {
	questions := []models.ExamQuestion{
		{ExamID: 5, QuestionID: 30, Position: 0},
		{ExamID: 5, QuestionID: 12, Position: 1},
		{ExamID: 5, QuestionID: 44, Position: 2},
	}

	answers := snapshotAnswers(9, questions)

	if len(answers) != 3 {
		t.Fatalf("expected 3 answer rows, got %d", len(answers))
	}
	for i, answer := range answers {
		if answer.AttemptID != 9 {
			t.Errorf("row %d: AttemptID = %d, want 9", i, answer.AttemptID)
		}
		if answer.QuestionID != questions[i].QuestionID {
			t.Errorf("row %d: QuestionID = %d, want %d", i, answer.QuestionID, questions[i].QuestionID)
		}
		if answer.Position != i {
			t.Errorf("row %d: Position = %d, want %d", i, answer.Position, i)
		}
		if answer.SelectedOptionID != nil || answer.IsCorrect != nil {
			t.Errorf("row %d: snapshot rows must start unanswered and ungraded", i)
		}
	}
}

func TestBuildAttemptResponse_InProgressHidesAnswerKey(t *testing.T) {
	limit := 60
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	explanation := "duration measures price sensitivity"

	attempt := &models.ExamAttempt{
		ID:        1,
		Status:    models.AttemptInProgress,
		StartedAt: startedAt,
		Exam:      models.Exam{TimeLimitMinutes: &limit, PassScorePercent: 70},
		Answers: []models.AttemptAnswer{
			{
				ID:         1,
				QuestionID: 10,
				IsCorrect:  boolPtr(true),
				Question: models.Question{
					ID:          10,
					Type:        models.MultipleChoice,
					Explanation: &explanation,
					Options: []models.Option{
						{ID: 100, IsCorrect: true},
						{ID: 101},
					},
				},
			},
		},
	}

	resp := buildAttemptResponse(attempt, startedAt.Add(15*time.Minute))

	if resp.RemainingSeconds == nil || *resp.RemainingSeconds != 45*60 {
		t.Errorf("RemainingSeconds = %v, want 2700", resp.RemainingSeconds)
	}
	if resp.Passed != nil {
		t.Error("in-progress attempt must not expose a pass flag")
	}

	view := resp.AnswerViews[0]
	if view.IsCorrect != nil {
		t.Error("in-progress view must hide the grade")
	}
	if view.Question.Explanation != nil {
		t.Error("in-progress view must hide the explanation")
	}
	for _, option := range view.Question.Options {
		if option.IsCorrect {
			t.Error("in-progress view must hide the answer key")
		}
	}
}

func TestBuildAttemptResponse_SubmittedRevealsResult(t *testing.T) {
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	submittedAt := startedAt.Add(50 * time.Minute)
	score := 80.0

	attempt := &models.ExamAttempt{
		ID:           2,
		Status:       models.AttemptSubmitted,
		StartedAt:    startedAt,
		SubmittedAt:  &submittedAt,
		ScorePercent: &score,
		Exam:         models.Exam{PassScorePercent: 70},
		Answers: []models.AttemptAnswer{
			{
				ID:         1,
				QuestionID: 10,
				IsCorrect:  boolPtr(true),
				Question: models.Question{
					ID:      10,
					Type:    models.MultipleChoice,
					Options: []models.Option{{ID: 100, IsCorrect: true}, {ID: 101}},
				},
			},
		},
	}

	resp := buildAttemptResponse(attempt, submittedAt.Add(time.Hour))

	if resp.RemainingSeconds != nil {
		t.Error("submitted attempt must not report remaining time")
	}
	if resp.Passed == nil || !*resp.Passed {
		t.Errorf("Passed = %v, want true for 80%% against a 70%% threshold", resp.Passed)
	}

	view := resp.AnswerViews[0]
	if view.IsCorrect == nil || !*view.IsCorrect {
		t.Error("submitted view must reveal the grade")
	}
	if view.Question.CorrectOption() == nil {
		t.Error("submitted view must reveal the answer key")
	}
}

func TestBuildAttemptResponse_FailingScore(t *testing.T) {
	score := 55.0
	attempt := &models.ExamAttempt{
		Status:       models.AttemptSubmitted,
		ScorePercent: &score,
		Exam:         models.Exam{PassScorePercent: 70},
	}

	resp := buildAttemptResponse(attempt, time.Now())

	if resp.Passed == nil || *resp.Passed {
		t.Errorf("Passed = %v, want false for 55%% against a 70%% threshold", resp.Passed)
	}
}

func TestPageFromFilters(t *testing.T) {
	tests := []struct {
		limit, offset, wantPage, wantSize int
	}{
		{20, 0, 1, 20},
		{20, 40, 3, 20},
		{10, 25, 3, 10},
		{0, 0, 1, 20},
	}

	for _, tt := range tests {
		page, size := pageFromFilters(tt.limit, tt.offset)
		if page != tt.wantPage || size != tt.wantSize {
			t.Errorf("pageFromFilters(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, page, size, tt.wantPage, tt.wantSize)
		}
	}
}

func boolPtr(v bool) *bool {
	return &v
}
