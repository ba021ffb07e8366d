package dummydb

import (
	"sync"
	"time"

	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
)

type (
	DB struct {
		course *courseTables
		trail  *trailTables
		org    *orgTables
	}

	memberKey struct {
		id       string // lesson, question, course or step ID
		memberID string
	}

	attendanceKey struct {
		lessonID string
		memberID string
		date     time.Time
	}

	courseTables struct {
		sync.RWMutex
		courses     map[string]*course.Course
		lessons     map[string]*course.Lesson
		questions   map[string]*course.QuizQuestion
		answers     map[memberKey]*course.QuizAnswer
		attendance  map[attendanceKey]*course.AttendanceRecord
		completions map[memberKey]*course.LessonCompletion
		enrollments map[memberKey]*course.Enrollment
	}

	trailTables struct {
		sync.RWMutex
		trails      map[string]*trail.Trail
		stages      map[string]*trail.Stage
		steps       map[string]*trail.Step
		completions map[memberKey]*trail.StepCompletion
	}

	orgTables struct {
		sync.RWMutex
		orgs        map[string]*org.Organization
		events      map[string]*org.Event
		devotionals map[string]*org.Devotional
	}
)

func Open() (*DB, error) {
	db := &DB{
		course: &courseTables{
			courses:     make(map[string]*course.Course),
			lessons:     make(map[string]*course.Lesson),
			questions:   make(map[string]*course.QuizQuestion),
			answers:     make(map[memberKey]*course.QuizAnswer),
			attendance:  make(map[attendanceKey]*course.AttendanceRecord),
			completions: make(map[memberKey]*course.LessonCompletion),
			enrollments: make(map[memberKey]*course.Enrollment),
		},
		trail: &trailTables{
			trails:      make(map[string]*trail.Trail),
			stages:      make(map[string]*trail.Stage),
			steps:       make(map[string]*trail.Step),
			completions: make(map[memberKey]*trail.StepCompletion),
		},
		org: &orgTables{
			orgs:        make(map[string]*org.Organization),
			events:      make(map[string]*org.Event),
			devotionals: make(map[string]*org.Devotional),
		},
	}
	return db, nil
}
