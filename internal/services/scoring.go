package services

import (
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

// ScoreResult is the outcome of grading one attempt
type ScoreResult struct {
	ScorePercent float64
	Scored       int
	Correct      int
	Answered     int
	Grades       []repositories.AnswerGrade
}

// ScoreAttempt grades a snapshot of attempt answers. Only option based
// questions count toward the score. An unanswered option based question is
// graded incorrect. Constructed response questions keep a nil grade and are
// left out of the denominator. An attempt with no scorable questions scores
// zero percent.
func ScoreAttempt(answers []models.AttemptAnswer) ScoreResult {
	result := ScoreResult{
		Grades: make([]repositories.AnswerGrade, 0, len(answers)),
	}

	for _, answer := range answers {
		if answer.Answered() {
			result.Answered++
		}

		if !answer.Question.Type.IsOptionBased() {
			result.Grades = append(result.Grades, repositories.AnswerGrade{AnswerID: answer.ID, IsCorrect: nil})
			continue
		}

		result.Scored++
		correct := false
		if answer.SelectedOptionID != nil {
			for _, option := range answer.Question.Options {
				if option.ID == *answer.SelectedOptionID {
					correct = option.IsCorrect
					break
				}
			}
		}
		if correct {
			result.Correct++
		}
		result.Grades = append(result.Grades, repositories.AnswerGrade{AnswerID: answer.ID, IsCorrect: &correct})
	}

	if result.Scored > 0 {
		result.ScorePercent = float64(result.Correct) / float64(result.Scored) * 100
	}
	return result
}

// PassedScore reports whether a score meets the exam's pass threshold
func PassedScore(scorePercent float64, passScorePercent int) bool {
	return scorePercent >= float64(passScorePercent)
}
