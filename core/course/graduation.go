package course

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/ecclesia/core"
)

const maxCascadeAttempts = 3

type (
	MemberFailure struct {
		MemberID string `json:"memberId"`
		Err      error  `json:"-"`
	}

	GraduationResult struct {
		CourseID  string          `json:"courseId"`
		Status    Status          `json:"status"`
		Succeeded []string        `json:"succeeded"`
		Failed    []MemberFailure `json:"failed"`
	}
)

func (f MemberFailure) Error() string {
	return fmt.Sprintf("member %s: %v", f.MemberID, f.Err)
}

func (f MemberFailure) MarshalJSON() ([]byte, error) {
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		MemberID string `json:"memberId"`
		Error    string `json:"error"`
	}{f.MemberID, msg})
}

// FailedMembers lists the members whose cascade failed, ready to be retried.
func (r GraduationResult) FailedMembers() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.MemberID)
	}
	return ids
}

// GraduateCourse completes every lesson of the course for every enrolled member, then marks
// the course completed. Members are processed independently, at most `concurrency` at a time
// (the configured default when <= 0): a failing member never aborts the others and the course is
// completed even if some members failed. Their IDs are reported in the result so they can be retried.
//
// Graduating a completed course again re-runs the cascade. A closed course, or a course whose
// status changed while the cascade was running, fails with ErrCourseNotOpen.
func (svc *Service) GraduateCourse(ctx context.Context, caller core.Caller, courseID string, concurrency int) (GraduationResult, error) {
	return svc.graduate(ctx, caller, courseID, nil, concurrency)
}

// RetryGraduation re-runs the graduation cascade for the given members only.
func (svc *Service) RetryGraduation(
	ctx context.Context,
	caller core.Caller,
	courseID string,
	memberIDs []string,
	concurrency int,
) (GraduationResult, error) {
	if len(memberIDs) == 0 {
		return GraduationResult{}, core.NewValidationError(nil, core.FieldError{Field: "memberIds", Error: "at least one member is required"})
	}
	return svc.graduate(ctx, caller, courseID, memberIDs, concurrency)
}

func (svc *Service) graduate(
	ctx context.Context,
	caller core.Caller,
	courseID string,
	only []string,
	concurrency int,
) (GraduationResult, error) {
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return GraduationResult{}, err
	}
	if !caller.Administers(c.OrganizationID, core.CapGraduate) {
		return GraduationResult{}, core.ErrPermissionDenied
	}
	if c.Status == StatusClosed {
		return GraduationResult{}, ErrCourseNotOpen
	}

	lessons, err := svc.repo.QueryLessons(ctx, c.ID)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "querying lessons")
	}
	SortLessons(lessons)
	enrollments, err := svc.repo.QueryEnrollments(ctx, c.ID)
	if err != nil {
		return GraduationResult{}, errors.Wrap(err, "querying enrollments")
	}

	members := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		members = append(members, e.MemberID)
	}
	var notEnrolled []string
	if only != nil {
		members, notEnrolled = selectMembers(members, only)
	}

	if concurrency <= 0 {
		concurrency = svc.conf.GraduationConcurrency
	}
	outcomes := make([]error, len(members))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, memberID := range members {
		i, memberID := i, memberID
		g.Go(func() error {
			outcomes[i] = svc.graduateMember(ctx, c, lessons, memberID)
			return nil
		})
	}
	_ = g.Wait()

	res := GraduationResult{
		CourseID:  c.ID,
		Status:    c.Status,
		Succeeded: make([]string, 0, len(members)),
		Failed:    make([]MemberFailure, 0),
	}
	for i, memberID := range members {
		if outcomes[i] != nil {
			res.Failed = append(res.Failed, MemberFailure{MemberID: memberID, Err: outcomes[i]})
			continue
		}
		res.Succeeded = append(res.Succeeded, memberID)
	}
	for _, memberID := range notEnrolled {
		res.Failed = append(res.Failed, MemberFailure{MemberID: memberID, Err: ErrNotEnrolled})
	}

	if c.Status == StatusOpen {
		if err = svc.repo.TransitionCourseStatus(ctx, c.ID, StatusOpen, StatusCompleted); err != nil {
			if errors.Cause(err) == ErrStatusChanged {
				return res, ErrCourseNotOpen
			}
			return res, errors.Wrap(err, "completing course")
		}
	}
	res.Status = StatusCompleted

	if len(res.Failed) > 0 {
		svc.logger.Warn(
			fmt.Sprintf("course %s graduated with %d failed member(s)", c.ID, len(res.Failed)),
			map[string]interface{}{"failed": res.FailedMembers()},
			caller,
		)
	} else {
		svc.logger.Info(fmt.Sprintf("course %s graduated: %d member(s)", c.ID, len(res.Succeeded)))
	}
	svc.notifier.Notify(core.Event{
		Kind:           core.EventCourseGraduated,
		OrganizationID: c.OrganizationID,
		CourseID:       c.ID,
		Graduated:      len(res.Succeeded),
		Failed:         len(res.Failed),
		OccurredAt:     nowFunc().UTC(),
	})
	return res, nil
}

// graduateMember completes the lessons one after the other, stopping at the first failure.
// Lessons already completed by the member keep their completion, except attendance ones
// which the cascade takes over so a later absence cannot revoke them.
func (svc *Service) graduateMember(ctx context.Context, c Course, lessons []Lesson, memberID string) error {
	for _, l := range lessons {
		if err := svc.cascadeCompletion(ctx, c, l, memberID); err != nil {
			return errors.Wrapf(err, "completing lesson %s", l.ID)
		}
	}
	return nil
}

func (svc *Service) cascadeCompletion(ctx context.Context, c Course, l Lesson, memberID string) error {
	for attempt := 0; attempt < maxCascadeAttempts; attempt++ {
		comp, created, err := svc.repo.UpsertCompletion(ctx, LessonCompletion{
			LessonID:    l.ID,
			CourseID:    c.ID,
			MemberID:    memberID,
			Origin:      OriginCascade,
			CompletedAt: nowFunc().UTC(),
		})
		if err != nil {
			return err
		}
		if created || comp.Origin != OriginAttendance {
			return nil
		}
		promoted, err := svc.repo.PromoteCompletion(ctx, l.ID, memberID, OriginAttendance, OriginCascade)
		if err != nil {
			return errors.Wrap(err, "promoting attendance completion")
		}
		if promoted {
			return nil
		}
		// the attendance completion was revoked in between: insert ours
	}
	return errors.Errorf("completion kept changing after %d attempts", maxCascadeAttempts)
}

// selectMembers splits `wanted` into the enrolled members (in enrollment order) and the others.
func selectMembers(enrolled, wanted []string) (selected, missing []string) {
	want := make(map[string]bool, len(wanted))
	for _, id := range wanted {
		want[id] = true
	}
	for _, id := range enrolled {
		if want[id] {
			selected = append(selected, id)
			delete(want, id)
		}
	}
	for _, id := range wanted {
		if want[id] {
			missing = append(missing, id)
			delete(want, id)
		}
	}
	return selected, missing
}
