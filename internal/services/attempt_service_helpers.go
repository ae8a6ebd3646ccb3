package services

import (
	"time"

	"github.com/cfaprep/exam-service/internal/models"
)

// snapshotAnswers freezes an exam's question list into unanswered answer rows.
// The incoming list is already ordered by position.
func snapshotAnswers(attemptID uint, questions []models.ExamQuestion) []*models.AttemptAnswer {
	answers := make([]*models.AttemptAnswer, 0, len(questions))
	for _, eq := range questions {
		answers = append(answers, &models.AttemptAnswer{
			AttemptID:  attemptID,
			QuestionID: eq.QuestionID,
			Position:   eq.Position,
		})
	}
	return answers
}

// buildAttemptResponse shapes an attempt for its owner. While the attempt is
// in progress the answer key, explanations and grades are stripped so the
// client cannot read them mid-exam.
func buildAttemptResponse(attempt *models.ExamAttempt, now time.Time) *AttemptResponse {
	inProgress := attempt.Status == models.AttemptInProgress

	resp := &AttemptResponse{
		ExamAttempt: attempt,
		AnswerViews: make([]AttemptAnswerView, 0, len(attempt.Answers)),
	}

	if inProgress {
		resp.RemainingSeconds = RemainingSeconds(attempt.StartedAt, attempt.Exam.TimeLimitMinutes, now)
	}

	if attempt.ScorePercent != nil {
		passed := PassedScore(*attempt.ScorePercent, attempt.Exam.PassScorePercent)
		resp.Passed = &passed
	}

	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		view := AttemptAnswerView{
			QuestionID:       answer.QuestionID,
			Position:         answer.Position,
			SelectedOptionID: answer.SelectedOptionID,
		}
		if inProgress {
			view.Question = sanitizeQuestion(&answer.Question)
		} else {
			view.Question = &answer.Question
			view.IsCorrect = answer.IsCorrect
		}
		resp.AnswerViews = append(resp.AnswerViews, view)
	}

	// The embedded answer rows duplicate the views; drop them from the payload.
	resp.ExamAttempt.Answers = nil

	return resp
}

// sanitizeQuestion copies a question without its answer key or explanation
func sanitizeQuestion(q *models.Question) *models.Question {
	clean := *q
	clean.Explanation = nil
	clean.Options = make([]models.Option, len(q.Options))
	for i, option := range q.Options {
		option.IsCorrect = false
		clean.Options[i] = option
	}
	return &clean
}

// pageFromFilters derives 1-based page metadata from limit/offset
func pageFromFilters(limit, offset int) (page, size int) {
	if limit <= 0 {
		limit = 20
	}
	return offset/limit + 1, limit
}
