package services

import (
	"testing"

	"github.com/cfaprep/exam-service/internal/models"
)

func mcqAnswer(answerID, questionID, correctOptionID, wrongOptionID uint, selected *uint) models.AttemptAnswer {
	return models.AttemptAnswer{
		ID:               answerID,
		QuestionID:       questionID,
		SelectedOptionID: selected,
		Question: models.Question{
			ID:   questionID,
			Type: models.MultipleChoice,
			Options: []models.Option{
				{ID: correctOptionID, QuestionID: questionID, IsCorrect: true},
				{ID: wrongOptionID, QuestionID: questionID, IsCorrect: false},
			},
		},
	}
}

func TestScoreAttempt(t *testing.T) {
	t.Run("half correct scores fifty percent", func(t *testing.T) {
		answers := []models.AttemptAnswer{
			mcqAnswer(1, 10, 100, 101, uintPtr(100)),
			mcqAnswer(2, 11, 110, 111, uintPtr(111)),
		}

		result := ScoreAttempt(answers)

		if result.ScorePercent != 50 {
			t.Errorf("ScorePercent = %v, want 50", result.ScorePercent)
		}
		if result.Scored != 2 || result.Correct != 1 || result.Answered != 2 {
			t.Errorf("counts = scored %d correct %d answered %d, want 2/1/2",
				result.Scored, result.Correct, result.Answered)
		}
		if len(result.Grades) != 2 {
			t.Fatalf("expected 2 grades, got %d", len(result.Grades))
		}
		if result.Grades[0].IsCorrect == nil || !*result.Grades[0].IsCorrect {
			t.Error("first answer should be graded correct")
		}
		if result.Grades[1].IsCorrect == nil || *result.Grades[1].IsCorrect {
			t.Error("second answer should be graded incorrect")
		}
	})

	t.Run("unanswered counts as incorrect", func(t *testing.T) {
		answers := []models.AttemptAnswer{
			mcqAnswer(1, 10, 100, 101, nil),
			mcqAnswer(2, 11, 110, 111, uintPtr(110)),
		}

		result := ScoreAttempt(answers)

		if result.ScorePercent != 50 {
			t.Errorf("ScorePercent = %v, want 50", result.ScorePercent)
		}
		if result.Answered != 1 {
			t.Errorf("Answered = %d, want 1", result.Answered)
		}
		if result.Grades[0].IsCorrect == nil || *result.Grades[0].IsCorrect {
			t.Error("unanswered question should be graded incorrect, not skipped")
		}
	})

	t.Run("constructed response is excluded from the denominator", func(t *testing.T) {
		answers := []models.AttemptAnswer{
			mcqAnswer(1, 10, 100, 101, uintPtr(100)),
			{
				ID:         2,
				QuestionID: 20,
				Question:   models.Question{ID: 20, Type: models.ConstructedResponse},
			},
		}

		result := ScoreAttempt(answers)

		if result.ScorePercent != 100 {
			t.Errorf("ScorePercent = %v, want 100", result.ScorePercent)
		}
		if result.Scored != 1 {
			t.Errorf("Scored = %d, want 1", result.Scored)
		}
		if result.Grades[1].IsCorrect != nil {
			t.Error("constructed response answer must keep a nil grade")
		}
	})

	t.Run("no scorable questions scores zero", func(t *testing.T) {
		answers := []models.AttemptAnswer{
			{ID: 1, QuestionID: 20, Question: models.Question{ID: 20, Type: models.ConstructedResponse}},
		}

		result := ScoreAttempt(answers)

		if result.ScorePercent != 0 {
			t.Errorf("ScorePercent = %v, want 0", result.ScorePercent)
		}
		if result.Scored != 0 {
			t.Errorf("Scored = %d, want 0", result.Scored)
		}
	})

	t.Run("empty attempt scores zero", func(t *testing.T) {
		result := ScoreAttempt(nil)
		if result.ScorePercent != 0 || len(result.Grades) != 0 {
			t.Errorf("empty attempt: got %v%% with %d grades", result.ScorePercent, len(result.Grades))
		}
	})
}

func TestPassedScore(t *testing.T) {
	if !PassedScore(70, 70) {
		t.Error("score equal to the threshold should pass")
	}
	if PassedScore(69.99, 70) {
		t.Error("score below the threshold should fail")
	}
	if !PassedScore(100, 70) {
		t.Error("full score should pass")
	}
}

func uintPtr(v uint) *uint {
	return &v
}
