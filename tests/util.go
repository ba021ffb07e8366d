package testutil

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	"github.com/trezcool/ecclesia/services/logger"
	"github.com/trezcool/ecclesia/storage/database"
)

// Config returns the configuration used by tests.
func Config() *core.Config {
	return &core.Config{
		AppName:          "Ecclesia",
		Build:            "test",
		Env:              "TEST",
		Debug:            true,
		TestMode:         true,
		SecretKey:        "test-secret-key",
		DefaultFromEmail: mail.Address{Name: "Ecclesia", Address: "noreply@ecclesia.test"},
		Server: core.ServerConfig{
			Host:            "127.0.0.1:0",
			ShutdownTimeout: time.Second,
		},
		Database: core.DatabaseConfig{Engine: database.EngineSqlite, Name: ":memory:"},
		Progression: core.ProgressionConfig{
			DefaultPassThreshold:  70,
			GraduationConcurrency: 4,
		},
		Notifications: core.NotificationConfig{
			OperatorEmail:  "ops@ecclesia.test",
			WebhookTimeout: time.Second,
			WebhookRetries: 2,
		},
	}
}

func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), Config())
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate
}

// PrepareDB opens a migrated in-memory sqlite database, closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := Config().Database
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(db, conf.Engine, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func Caller(orgID, memberID string, caps ...core.Capability) core.Caller {
	return core.Caller{MemberID: memberID, OrganizationID: orgID, Capabilities: caps}
}

// Admin returns a caller holding every capability within the organization.
func Admin(orgID string) core.Caller {
	return Caller(orgID, "admin-"+orgID, core.AllCapabilities...)
}

func CreateOrganization(t *testing.T, repo org.Repository, name, parentID string, push, pull org.Sharing) org.Organization {
	t.Helper()
	now := time.Now().UTC()
	o, err := repo.CreateOrganization(context.Background(), org.Organization{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		Push:      push,
		Pull:      pull,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOrganization() failed: %v", err)
	}
	return o
}

func CreateCourse(t *testing.T, repo course.Repository, orgID, title string, shared bool, createdAt ...time.Time) course.Course {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCourse(context.Background(), course.Course{
		ID:                uuid.New().String(),
		OrganizationID:    orgID,
		Title:             title,
		ShareWithChildren: shared,
		Status:            course.StatusOpen,
		CreatedAt:         tstamp,
		UpdatedAt:         tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateLesson(t *testing.T, repo course.Repository, courseID string, typ course.LessonType, order int, passThreshold ...int) course.Lesson {
	t.Helper()
	now := time.Now().UTC()
	l := course.Lesson{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Title:     "Lesson " + string(typ),
		Type:      typ,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if typ == course.LessonQuiz {
		l.PassThreshold = 70
		if len(passThreshold) > 0 {
			l.PassThreshold = passThreshold[0]
		}
	}
	l, err := repo.CreateLesson(context.Background(), l)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}

func CreateQuestion(t *testing.T, repo course.Repository, lessonID string, order, correctIndex, points int) course.QuizQuestion {
	t.Helper()
	q, err := repo.CreateQuestion(context.Background(), course.QuizQuestion{
		ID:           uuid.New().String(),
		LessonID:     lessonID,
		Prompt:       "Question?",
		Options:      []string{"A", "B", "C", "D"},
		CorrectIndex: correctIndex,
		Points:       points,
		Order:        order,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}

func Enroll(t *testing.T, repo course.Repository, courseID string, memberIDs ...string) {
	t.Helper()
	now := time.Now().UTC()
	for i, memberID := range memberIDs {
		_, err := repo.UpsertEnrollment(context.Background(), course.Enrollment{
			CourseID:   courseID,
			MemberID:   memberID,
			EnrolledAt: now.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}

func CreateTrail(t *testing.T, repo trail.Repository, orgID, title string, active bool, createdAt ...time.Time) trail.Trail {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	tr, err := repo.CreateTrail(context.Background(), trail.Trail{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Title:          title,
		Active:         active,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTrail() failed: %v", err)
	}
	return tr
}

func CreateStage(t *testing.T, repo trail.Repository, trailID string, order int) trail.Stage {
	t.Helper()
	s, err := repo.CreateStage(context.Background(), trail.Stage{
		ID:        uuid.New().String(),
		TrailID:   trailID,
		Title:     "Stage",
		Order:     order,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStage() failed: %v", err)
	}
	return s
}

func CreateStep(t *testing.T, repo trail.Repository, stage trail.Stage, order int) trail.Step {
	t.Helper()
	s, err := repo.CreateStep(context.Background(), trail.Step{
		ID:        uuid.New().String(),
		StageID:   stage.ID,
		TrailID:   stage.TrailID,
		Title:     "Step",
		Order:     order,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStep() failed: %v", err)
	}
	return s
}
