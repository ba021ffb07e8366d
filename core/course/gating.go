package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

// IsUnlocked tells whether the lesson is unlocked for a member with the given completions.
// The first lesson (in ascending Order) is always unlocked, any other one only once its
// predecessor is complete. Gaps in Order are tolerated. Unknown lessons are locked.
func IsUnlocked(lessons []Lesson, completions CompletionSet, lessonID string) bool {
	sorted := make([]Lesson, len(lessons))
	copy(sorted, lessons)
	SortLessons(sorted)

	for i, l := range sorted {
		if l.ID != lessonID {
			continue
		}
		if i == 0 {
			return true
		}
		return completions.Has(sorted[i-1].ID)
	}
	return false
}

// LessonStates returns, in order, the gating state of every lesson of the course for a member.
func LessonStates(lessons []Lesson, completions CompletionSet) []LessonState {
	sorted := make([]Lesson, len(lessons))
	copy(sorted, lessons)
	SortLessons(sorted)

	states := make([]LessonState, 0, len(sorted))
	for i, l := range sorted {
		st := LessonState{
			Lesson:   l,
			Unlocked: i == 0 || completions.Has(sorted[i-1].ID),
		}
		if comp, ok := completions[l.ID]; ok {
			st.Completed = true
			st.Origin = comp.Origin
		}
		states = append(states, st)
	}
	return states
}

// memberView is a course's lessons along with one member's completions.
type memberView struct {
	course      Course
	lessons     []Lesson
	completions CompletionSet
}

func (v memberView) unlocked(lessonID string) bool {
	return IsUnlocked(v.lessons, v.completions, lessonID)
}

func (svc *Service) memberView(ctx context.Context, courseID, memberID string) (memberView, error) {
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return memberView{}, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, courseID)
	if err != nil {
		return memberView{}, errors.Wrap(err, "querying lessons")
	}
	SortLessons(lessons)
	comps, err := svc.repo.QueryCompletions(ctx, CompletionFilter{CourseID: courseID, MemberID: memberID})
	if err != nil {
		return memberView{}, errors.Wrap(err, "querying completions")
	}
	return memberView{course: c, lessons: lessons, completions: NewCompletionSet(comps)}, nil
}

// MemberLessons returns the gating state of every lesson of a course for a member.
func (svc *Service) MemberLessons(ctx context.Context, courseID, memberID string) ([]LessonState, error) {
	view, err := svc.memberView(ctx, courseID, memberID)
	if err != nil {
		return nil, err
	}
	return LessonStates(view.lessons, view.completions), nil
}

// CanMarkComplete tells whether the member may complete the lesson now.
// When ok is false, reason is one of ErrNotEnrolled, ErrAlreadyCompleted, ErrLocked, ErrWrongLessonType,
// ErrIncompleteQuiz or ErrBelowPassThreshold, or any error met while reading the store.
func (svc *Service) CanMarkComplete(ctx context.Context, lessonID, memberID string) (ok bool, reason error) {
	l, err := svc.GetLesson(ctx, lessonID)
	if err != nil {
		return false, err
	}
	view, err := svc.memberView(ctx, l.CourseID, memberID)
	if err != nil {
		return false, err
	}
	return svc.canMarkComplete(ctx, view, l, memberID)
}

func (svc *Service) canMarkComplete(ctx context.Context, view memberView, l Lesson, memberID string) (bool, error) {
	if err := svc.checkEnrolled(ctx, l.CourseID, memberID); err != nil {
		return false, err
	}
	if view.completions.Has(l.ID) {
		return false, ErrAlreadyCompleted
	}
	if !view.unlocked(l.ID) {
		return false, ErrLocked
	}

	switch l.Type {
	case LessonText, LessonVideo:
		return true, nil
	case LessonQuiz:
		score, err := svc.score(ctx, l.ID, memberID)
		if err != nil {
			return false, err
		}
		if score.Questions == 0 || !score.Complete() {
			return false, ErrIncompleteQuiz
		}
		if !score.Passes(l.PassThreshold) {
			return false, ErrBelowPassThreshold
		}
		return true, nil
	default: // in-person completion comes from attendance only
		return false, ErrWrongLessonType
	}
}

// CompleteLesson marks a text, video or quiz lesson as completed by the member.
// Completing an already completed lesson is a no-op returning the existing completion.
func (svc *Service) CompleteLesson(ctx context.Context, caller core.Caller, lessonID, memberID string) (LessonCompletion, error) {
	if !caller.ActsFor(memberID) {
		return LessonCompletion{}, core.ErrPermissionDenied
	}
	l, err := svc.GetLesson(ctx, lessonID)
	if err != nil {
		return LessonCompletion{}, err
	}
	view, err := svc.memberView(ctx, l.CourseID, memberID)
	if err != nil {
		return LessonCompletion{}, err
	}

	if ok, reason := svc.canMarkComplete(ctx, view, l, memberID); !ok {
		if errors.Cause(reason) == ErrAlreadyCompleted {
			return view.completions[l.ID], nil
		}
		return LessonCompletion{}, reason
	}

	origin := OriginManual
	if l.IsQuiz() {
		origin = OriginQuiz
	}
	comp, created, err := svc.repo.UpsertCompletion(ctx, LessonCompletion{
		LessonID:    l.ID,
		CourseID:    l.CourseID,
		MemberID:    memberID,
		Origin:      origin,
		CompletedAt: nowFunc().UTC(),
	})
	if err != nil {
		return LessonCompletion{}, errors.Wrap(err, "upserting completion")
	}
	if created {
		svc.notifyCompleted(view.course, comp)
	}
	return comp, nil
}
