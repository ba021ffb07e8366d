package core

import "time"

type EventKind string

const (
	EventLessonCompleted EventKind = "lesson.completed"
	EventCourseGraduated EventKind = "course.graduated"
)

type Event struct {
	Kind           EventKind `json:"kind"`
	OrganizationID string    `json:"organizationId"`
	CourseID       string    `json:"courseId,omitempty"`
	LessonID       string    `json:"lessonId,omitempty"`
	MemberID       string    `json:"memberId,omitempty"`
	Graduated      int       `json:"graduated,omitempty"`
	Failed         int       `json:"failed,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Notifier delivers progression events. Notify must not block the caller
// and delivery failures are never reported back.
type Notifier interface {
	Notify(events ...Event)
}
