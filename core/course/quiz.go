package course

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

// Score is a member's result on a quiz lesson.
type Score struct {
	Earned    int `json:"earned"`
	Possible  int `json:"possible"`
	Answered  int `json:"answered"`
	Questions int `json:"questions"`
}

// Complete tells whether every question has been answered.
func (s Score) Complete() bool { return s.Answered == s.Questions }

func (s Score) Percentage() float64 {
	if s.Possible == 0 {
		return 0
	}
	return float64(s.Earned) * 100 / float64(s.Possible)
}

// Passes tells whether earned / possible * 100 >= threshold, computed without rounding.
func (s Score) Passes(threshold int) bool {
	if s.Possible == 0 {
		return false
	}
	return s.Earned*100 >= threshold*s.Possible
}

// ScoreAnswer returns whether the chosen option is the correct one and the points it is worth.
func ScoreAnswer(q QuizQuestion, chosenIndex int) (correct bool, points int) {
	if chosenIndex == q.CorrectIndex {
		return true, q.Points
	}
	return false, 0
}

// Evaluate sums a member's answers over the given questions. Answers to other questions are ignored.
func Evaluate(questions []QuizQuestion, answers []QuizAnswer) Score {
	byQuestion := make(map[string]QuizAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	score := Score{Questions: len(questions)}
	for _, q := range questions {
		score.Possible += q.Points
		if a, ok := byQuestion[q.ID]; ok {
			score.Answered++
			score.Earned += a.PointsAwarded
		}
	}
	return score
}

func (svc *Service) score(ctx context.Context, lessonID, memberID string) (Score, error) {
	questions, err := svc.repo.QueryQuestions(ctx, lessonID)
	if err != nil {
		return Score{}, errors.Wrap(err, "querying questions")
	}
	answers, err := svc.repo.QueryAnswers(ctx, lessonID, memberID)
	if err != nil {
		return Score{}, errors.Wrap(err, "querying answers")
	}
	return Evaluate(questions, answers), nil
}

// QuizScore returns the member's earned and possible points on a quiz lesson.
func (svc *Service) QuizScore(ctx context.Context, lessonID, memberID string) (Score, error) {
	l, err := svc.GetLesson(ctx, lessonID)
	if err != nil {
		return Score{}, err
	}
	if !l.IsQuiz() {
		return Score{}, ErrWrongLessonType
	}
	return svc.score(ctx, lessonID, memberID)
}

// SubmitAnswer records the member's answer to a quiz question. Answers are final:
// a second submission for the same question fails with ErrAlreadyAnswered.
func (svc *Service) SubmitAnswer(ctx context.Context, caller core.Caller, questionID, memberID string, chosenIndex int) (QuizAnswer, error) {
	if !caller.ActsFor(memberID) {
		return QuizAnswer{}, core.ErrPermissionDenied
	}
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return QuizAnswer{}, errors.Wrapf(err, "question %s", questionID)
	}
	if chosenIndex < 0 || chosenIndex >= len(q.Options) {
		return QuizAnswer{}, core.NewValidationError(nil, core.FieldError{
			Field: "chosenIndex",
			Error: fmt.Sprintf("must be between 0 and %d", len(q.Options)-1),
		})
	}

	l, err := svc.GetLesson(ctx, q.LessonID)
	if err != nil {
		return QuizAnswer{}, err
	}
	view, err := svc.memberView(ctx, l.CourseID, memberID)
	if err != nil {
		return QuizAnswer{}, err
	}
	if err = svc.checkEnrolled(ctx, l.CourseID, memberID); err != nil {
		return QuizAnswer{}, err
	}
	if !view.unlocked(l.ID) {
		return QuizAnswer{}, ErrLocked
	}

	correct, points := ScoreAnswer(q, chosenIndex)
	answer := QuizAnswer{
		QuestionID:    q.ID,
		LessonID:      q.LessonID,
		MemberID:      memberID,
		ChosenIndex:   chosenIndex,
		Correct:       correct,
		PointsAwarded: points,
		AnsweredAt:    nowFunc().UTC(),
	}
	if err = svc.repo.InsertAnswer(ctx, answer); err != nil {
		if errors.Cause(err) == ErrAlreadyAnswered {
			return QuizAnswer{}, ErrAlreadyAnswered
		}
		return QuizAnswer{}, errors.Wrap(err, "inserting answer")
	}
	return answer, nil
}
