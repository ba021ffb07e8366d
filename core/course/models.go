package course

import (
	"sort"
	"time"
)

type Status string

// Course statuses
const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

type LessonType string

// Lesson types
const (
	LessonText     LessonType = "text"
	LessonVideo    LessonType = "video"
	LessonQuiz     LessonType = "quiz"
	LessonInPerson LessonType = "in-person"
)

// Origin tells which producer created a LessonCompletion.
type Origin string

const (
	OriginManual     Origin = "manual"
	OriginQuiz       Origin = "quiz"
	OriginAttendance Origin = "attendance"
	OriginCascade    Origin = "cascade"
)

const (
	MaxQuestionsPerLesson = 10
	OptionsPerQuestion    = 4
)

type (
	Course struct {
		ID                string    `json:"id"`
		OrganizationID    string    `json:"organizationId"`
		TeacherID         string    `json:"teacherId,omitempty"`
		Title             string    `json:"title"`
		Description       string    `json:"description,omitempty"`
		ShareWithChildren bool      `json:"shareWithChildren"`
		Status            Status    `json:"status"`
		CreatedAt         time.Time `json:"createdAt"`
		UpdatedAt         time.Time `json:"updatedAt"`
	}

	Lesson struct {
		ID            string     `json:"id"`
		CourseID      string     `json:"courseId"`
		Title         string     `json:"title"`
		Content       string     `json:"content,omitempty"`
		Type          LessonType `json:"type"`
		Order         int        `json:"order"`
		PassThreshold int        `json:"passThreshold,omitempty"` // quiz only, percentage
		CreatedAt     time.Time  `json:"createdAt"`
		UpdatedAt     time.Time  `json:"updatedAt"`
	}

	QuizQuestion struct {
		ID           string    `json:"id"`
		LessonID     string    `json:"lessonId"`
		Prompt       string    `json:"prompt"`
		Options      []string  `json:"options"`
		CorrectIndex int       `json:"correctIndex"`
		Points       int       `json:"points"`
		Order        int       `json:"order"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	QuizAnswer struct {
		QuestionID    string    `json:"questionId"`
		LessonID      string    `json:"lessonId"`
		MemberID      string    `json:"memberId"`
		ChosenIndex   int       `json:"chosenIndex"`
		Correct       bool      `json:"correct"`
		PointsAwarded int       `json:"pointsAwarded"`
		AnsweredAt    time.Time `json:"answeredAt"`
	}

	AttendanceRecord struct {
		LessonID   string    `json:"lessonId"`
		MemberID   string    `json:"memberId"`
		Date       time.Time `json:"date"` // calendar day, midnight UTC
		Present    bool      `json:"present"`
		RecordedBy string    `json:"recordedBy,omitempty"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	LessonCompletion struct {
		LessonID    string    `json:"lessonId"`
		CourseID    string    `json:"courseId"`
		MemberID    string    `json:"memberId"`
		Origin      Origin    `json:"origin"`
		CompletedAt time.Time `json:"completedAt"`
	}

	Enrollment struct {
		CourseID   string    `json:"courseId"`
		MemberID   string    `json:"memberId"`
		EnrolledAt time.Time `json:"enrolledAt"`
	}

	// LessonState is a lesson as seen by one member.
	LessonState struct {
		Lesson    Lesson `json:"lesson"`
		Unlocked  bool   `json:"unlocked"`
		Completed bool   `json:"completed"`
		Origin    Origin `json:"origin,omitempty"`
	}

	// CompletionSet indexes a member's completions by lesson ID.
	CompletionSet map[string]LessonCompletion

	Filter struct {
		OrganizationID string
		SharedOnly     bool // only courses shared with child organizations
	}

	CompletionFilter struct {
		CourseID string
		LessonID string
		MemberID string
	}
)

func (c Course) IsOpen() bool { return c.Status == StatusOpen }

func (l Lesson) IsQuiz() bool { return l.Type == LessonQuiz }

func NewCompletionSet(completions []LessonCompletion) CompletionSet {
	set := make(CompletionSet, len(completions))
	for _, c := range completions {
		set[c.LessonID] = c
	}
	return set
}

func (s CompletionSet) Has(lessonID string) bool {
	_, ok := s[lessonID]
	return ok
}

// SortLessons orders lessons by ascending Order; ties (which should not happen) fall back on creation.
func SortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func SortQuestions(questions []QuizQuestion) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Order != questions[j].Order {
			return questions[i].Order < questions[j].Order
		}
		return questions[i].CreatedAt.Before(questions[j].CreatedAt)
	})
}
