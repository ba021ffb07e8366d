package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/ecclesia/apps/api/echo"
	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	notifysvc "github.com/trezcool/ecclesia/services/notify"
	sqlxrepos "github.com/trezcool/ecclesia/storage/database/sqlx"
	"github.com/trezcool/ecclesia/tests"
)

type fixture struct {
	cli        *commandLine
	out        *bytes.Buffer
	courseRepo course.Repository
	trailRepo  trail.Repository
	orgRepo    org.Repository
}

func setup(t *testing.T, input ...string) fixture {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	conf := testutil.Config()
	validate := testutil.NewValidator()

	f := fixture{
		out:        new(bytes.Buffer),
		courseRepo: sqlxrepos.NewCourseRepository(db),
		trailRepo:  sqlxrepos.NewTrailRepository(db),
		orgRepo:    sqlxrepos.NewOrgRepository(db),
	}
	orgSvc := org.NewService(f.orgRepo, f.trailRepo, f.courseRepo, validate)

	// start CLI
	f.cli = &commandLine{
		conf:      conf,
		db:        db,
		courseSvc: course.NewService(f.courseRepo, validate, notifysvc.NewNotifierMock(), testutil.NewLogger(), conf.Progression),
		trailSvc:  trail.NewService(f.trailRepo, orgSvc, validate),
		in:        strings.NewReader(strings.Join(input, "\n")),
		out:       f.out,
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "graduate: no course", args: []string{"graduate"}, wantErr: errHelp},
		{name: "retry: no members", args: []string{"retry", "-course", "c1"}, wantErr: errHelp},
		{name: "retry: blank members", args: []string{"retry", "-course", "c1", "-members", " , "}, wantErr: errHelp},
		{name: "progress: no member", args: []string{"progress", "-org", "o1"}, wantErr: errHelp},
		{name: "token: no org", args: []string{"token", "-member", "m1"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"graduate", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	origMigrate := migrateFunc
	defer func() { migrateFunc = origMigrate }()
	migrateFunc = func(db *sqlx.DB, engine, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "devotional_tags", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(args))
		})
	}
}

func Test_commandLine_graduate(t *testing.T) {
	origIsTerminal := isTerminalFunc
	defer func() { isTerminalFunc = origIsTerminal }()

	newCourse := func(t *testing.T, f fixture) course.Course {
		o := testutil.CreateOrganization(t, f.orgRepo, "Central", "", org.Sharing{}, org.Sharing{})
		c := testutil.CreateCourse(t, f.courseRepo, o.ID, "Foundations", false)
		testutil.CreateLesson(t, f.courseRepo, c.ID, course.LessonText, 1)
		testutil.CreateLesson(t, f.courseRepo, c.ID, course.LessonInPerson, 2)
		testutil.Enroll(t, f.courseRepo, c.ID, "member-1", "member-2")
		return c
	}
	status := func(t *testing.T, f fixture, id string) course.Status {
		c, err := f.courseRepo.GetCourse(context.Background(), id)
		require.NoError(t, err)
		return c.Status
	}

	t.Run("declined", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		f := setup(t, "n")
		c := newCourse(t, f)

		err := f.cli.run([]string{"admin", "graduate", "-course", c.ID})
		assert.Equal(t, errAborted, err)
		assert.Contains(t, f.out.String(), `Graduate 2 member(s) of "Foundations" (open)? [y/N]: `)
		assert.Equal(t, course.StatusOpen, status(t, f, c.ID))
	})

	t.Run("confirmed", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		f := setup(t, "Y")
		c := newCourse(t, f)

		require.NoError(t, f.cli.run([]string{"admin", "graduate", "-course", c.ID, "-concurrency", "1"}))
		assert.Contains(t, f.out.String(), "graduated: 2")
		assert.NotContains(t, f.out.String(), "retry with")
		assert.Equal(t, course.StatusCompleted, status(t, f, c.ID))

		comps, err := f.courseRepo.QueryCompletions(context.Background(), course.CompletionFilter{CourseID: c.ID})
		require.NoError(t, err)
		assert.Len(t, comps, 4)
	})

	t.Run("no prompt", func(t *testing.T) {
		tests := []struct {
			name     string
			terminal bool
			args     []string
		}{
			{"with -yes", true, []string{"-yes"}},
			{"not a terminal", false, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				isTerminalFunc = func(int) bool { return tt.terminal }
				f := setup(t)
				c := newCourse(t, f)

				args := append([]string{"admin", "graduate", "-course", c.ID}, tt.args...)
				require.NoError(t, f.cli.run(args))
				assert.NotContains(t, f.out.String(), "[y/N]")
				assert.Equal(t, course.StatusCompleted, status(t, f, c.ID))
			})
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return false }
		f := setup(t)
		err := f.cli.run([]string{"admin", "graduate", "-course", "unknown"})
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))
	})

	t.Run("retry", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return false }
		f := setup(t)
		c := newCourse(t, f)

		require.NoError(t, f.cli.run([]string{"admin", "retry", "-course", c.ID, "-members", "member-2, stranger"}))
		out := f.out.String()
		assert.Contains(t, out, "graduated: 1")
		assert.Contains(t, out, "stranger: "+course.ErrNotEnrolled.Error())
		assert.Contains(t, out, "retry with: admin retry -course "+c.ID+" -members stranger")
		assert.Equal(t, course.StatusCompleted, status(t, f, c.ID))
	})
}

func Test_commandLine_progress(t *testing.T) {
	f := setup(t)
	o := testutil.CreateOrganization(t, f.orgRepo, "Central", "", org.Sharing{}, org.Sharing{})

	require.NoError(t, f.cli.run([]string{"admin", "progress", "-org", o.ID, "-member", "member-1"}))
	assert.Contains(t, f.out.String(), "has no active trail")

	tr := testutil.CreateTrail(t, f.trailRepo, o.ID, "Discipleship", true)
	first := testutil.CreateStage(t, f.trailRepo, tr.ID, 1)
	second := testutil.CreateStage(t, f.trailRepo, tr.ID, 2)
	step := testutil.CreateStep(t, f.trailRepo, first, 1)
	testutil.CreateStep(t, f.trailRepo, second, 1)
	_, err := f.cli.trailSvc.CompleteStep(context.Background(), testutil.Caller(o.ID, "member-1"), step.ID, "member-1")
	require.NoError(t, err)

	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"admin", "progress", "-org", o.ID, "-member", "member-1"}))
	out := f.out.String()
	assert.Contains(t, out, "trail "+tr.ID+": 1/2 steps (50.0%)")
	assert.Contains(t, out, "  1. Stage: 1/1")
	assert.Contains(t, out, "> 2. Stage: 0/1")
}

func Test_commandLine_token(t *testing.T) {
	f := setup(t)

	err := f.cli.run([]string{"admin", "token", "-member", "m1", "-org", "o1", "-caps", "lol"})
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))

	require.NoError(t, f.cli.run([]string{"admin", "token", "-member", "m1", "-org", "o1", "-caps", "course:graduate, Content:Manage"}))
	claims := new(echoapi.Claims)
	_, err = jwt.ParseWithClaims(strings.TrimSpace(f.out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(f.cli.conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.Caller{
		MemberID:       "m1",
		OrganizationID: "o1",
		Capabilities:   []core.Capability{core.CapGraduate, core.CapManageContent},
	}, claims.Caller())
}
