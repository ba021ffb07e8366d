package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

// SetAttendance records whether the member attended an in-person lesson on the given day.
// Marking the member present completes the lesson right away; marking them absent removes
// that completion again, unless it came from another producer or another day is still marked present.
func (svc *Service) SetAttendance(
	ctx context.Context,
	caller core.Caller,
	lessonID, memberID string,
	date time.Time,
	present bool,
) (AttendanceRecord, error) {
	l, c, err := svc.attendanceLesson(ctx, caller, lessonID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	if err = svc.checkEnrolled(ctx, c.ID, memberID); err != nil {
		return AttendanceRecord{}, err
	}
	if present {
		view, err := svc.memberView(ctx, c.ID, memberID)
		if err != nil {
			return AttendanceRecord{}, err
		}
		if !view.unlocked(l.ID) {
			return AttendanceRecord{}, ErrLocked
		}
	}

	now := nowFunc().UTC()
	rec, err := svc.repo.UpsertAttendance(ctx, AttendanceRecord{
		LessonID:   l.ID,
		MemberID:   memberID,
		Date:       core.Day(date),
		Present:    present,
		RecordedBy: caller.MemberID,
		UpdatedAt:  now,
	})
	if err != nil {
		return AttendanceRecord{}, errors.Wrap(err, "upserting attendance")
	}

	if !present {
		return rec, svc.revokeAttendanceCompletion(ctx, l.ID, memberID)
	}

	comp, created, err := svc.repo.UpsertCompletion(ctx, LessonCompletion{
		LessonID:    l.ID,
		CourseID:    c.ID,
		MemberID:    memberID,
		Origin:      OriginAttendance,
		CompletedAt: now,
	})
	if err != nil {
		return AttendanceRecord{}, errors.Wrap(err, "upserting completion")
	}
	if created {
		svc.notifyCompleted(c, comp)
	}
	return rec, nil
}

// DeleteAttendance deletes an attendance record, with the same effect on completion as marking the member absent.
func (svc *Service) DeleteAttendance(ctx context.Context, caller core.Caller, lessonID, memberID string, date time.Time) error {
	l, _, err := svc.attendanceLesson(ctx, caller, lessonID)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteAttendance(ctx, l.ID, memberID, core.Day(date)); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return svc.revokeAttendanceCompletion(ctx, l.ID, memberID)
}

// Attendance returns the attendance records of a member for a lesson.
func (svc *Service) Attendance(ctx context.Context, lessonID, memberID string) ([]AttendanceRecord, error) {
	if _, err := svc.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryAttendance(ctx, lessonID, memberID)
	return records, errors.Wrap(err, "querying attendance")
}

func (svc *Service) attendanceLesson(ctx context.Context, caller core.Caller, lessonID string) (Lesson, Course, error) {
	l, err := svc.GetLesson(ctx, lessonID)
	if err != nil {
		return Lesson{}, Course{}, err
	}
	c, err := svc.GetCourse(ctx, l.CourseID)
	if err != nil {
		return Lesson{}, Course{}, err
	}
	if !caller.Administers(c.OrganizationID, core.CapRecordAttendance) {
		return Lesson{}, Course{}, core.ErrPermissionDenied
	}
	if l.Type != LessonInPerson {
		return Lesson{}, Course{}, ErrWrongLessonType
	}
	return l, c, nil
}

func (svc *Service) revokeAttendanceCompletion(ctx context.Context, lessonID, memberID string) error {
	records, err := svc.repo.QueryAttendance(ctx, lessonID, memberID)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	for _, rec := range records {
		if rec.Present {
			return nil
		}
	}
	if _, err = svc.repo.DeleteCompletion(ctx, lessonID, memberID, OriginAttendance); err != nil {
		return errors.Wrap(err, "deleting completion")
	}
	return nil
}
