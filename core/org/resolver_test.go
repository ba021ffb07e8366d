package org_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	"github.com/trezcool/ecclesia/storage/database/dummy"
	"github.com/trezcool/ecclesia/tests"
)

var (
	all  = org.Sharing{Trails: true, Courses: true, Events: true, Devotionals: true}
	none = org.Sharing{}
)

type fixture struct {
	repo    org.Repository
	trails  trail.Repository
	courses course.Repository
	svc     *org.Service
}

func setup(t *testing.T) fixture {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	f := fixture{
		repo:    dummydb.NewOrgRepository(db),
		trails:  dummydb.NewTrailRepository(db),
		courses: dummydb.NewCourseRepository(db),
	}
	f.svc = org.NewService(f.repo, f.trails, f.courses, testutil.NewValidator())
	return f
}

func courseIDs(courses []course.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestService_VisibleCourses(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := testutil.CreateOrganization(t, f.repo, "A", "", org.Sharing{Courses: true}, none)
	b := testutil.CreateOrganization(t, f.repo, "B", a.ID, none, all)

	private := testutil.CreateCourse(t, f.courses, a.ID, "Leaders only", false)
	shared := testutil.CreateCourse(t, f.courses, a.ID, "Foundations", true)
	own := testutil.CreateCourse(t, f.courses, b.ID, "Local", false)

	visible, err := f.svc.VisibleCourses(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID, shared.ID}, courseIDs(visible))

	ok, err := f.svc.CourseVisible(ctx, b.ID, private.ID)
	require.NoError(t, err)
	assert.False(t, ok, "the course itself must be shared with children")

	ok, err = f.svc.CourseVisible(ctx, b.ID, shared.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	inherited, err := f.svc.InheritedCourses(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, inherited, "a root organization inherits nothing")
}

func TestService_inheritance(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		parentPush org.Sharing
		childPull  org.Sharing
		want       org.Sharing // categories the child should inherit
	}{
		{name: "everything shared", parentPush: all, childPull: all, want: all},
		{name: "parent does not push", parentPush: none, childPull: all, want: none},
		{name: "child does not pull", parentPush: all, childPull: none, want: none},
		{
			name:       "categories are independent",
			parentPush: org.Sharing{Trails: true, Events: true},
			childPull:  org.Sharing{Trails: true, Devotionals: true},
			want:       org.Sharing{Trails: true},
		},
		{
			name:       "events and devotionals",
			parentPush: org.Sharing{Events: true, Devotionals: true},
			childPull:  all,
			want:       org.Sharing{Events: true, Devotionals: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			parent := testutil.CreateOrganization(t, f.repo, "Parent", "", tt.parentPush, none)
			child := testutil.CreateOrganization(t, f.repo, "Child", parent.ID, none, tt.childPull)
			admin := testutil.Admin(parent.ID)

			testutil.CreateTrail(t, f.trails, parent.ID, "Trail", true, base)
			testutil.CreateCourse(t, f.courses, parent.ID, "Course", true, base)
			_, err := f.svc.CreateEvent(ctx, admin, org.NewEvent{Title: "Conference", StartsAt: base.AddDate(0, 1, 0)})
			require.NoError(t, err)
			_, err = f.svc.CreateDevotional(ctx, admin, org.NewDevotional{Title: "Psalm 23", Body: "The Lord is my shepherd"})
			require.NoError(t, err)

			trails, err := f.svc.InheritedTrails(ctx, child.ID)
			require.NoError(t, err)
			courses, err := f.svc.InheritedCourses(ctx, child.ID)
			require.NoError(t, err)
			events, err := f.svc.InheritedEvents(ctx, child.ID)
			require.NoError(t, err)
			devotionals, err := f.svc.InheritedDevotionals(ctx, child.ID)
			require.NoError(t, err)

			got := org.Sharing{
				Trails:      len(trails) == 1,
				Courses:     len(courses) == 1,
				Events:      len(events) == 1,
				Devotionals: len(devotionals) == 1,
			}
			assert.Equal(t, tt.want, got)

			// the parent's own view never changes
			ownEvents, err := f.svc.VisibleEvents(ctx, parent.ID)
			require.NoError(t, err)
			assert.Len(t, ownEvents, 1)
		})
	}
}

func TestService_inheritance_singleHop(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	grandparent := testutil.CreateOrganization(t, f.repo, "Grandparent", "", all, none)
	parent := testutil.CreateOrganization(t, f.repo, "Parent", grandparent.ID, all, all)
	child := testutil.CreateOrganization(t, f.repo, "Child", parent.ID, none, all)

	testutil.CreateTrail(t, f.trails, grandparent.ID, "Old trail", true)
	testutil.CreateCourse(t, f.courses, grandparent.ID, "Old course", true)

	parentTrails, err := f.svc.VisibleTrails(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, parentTrails, 1)

	trails, err := f.svc.VisibleTrails(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, trails)
	courses, err := f.svc.VisibleCourses(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestService_inheritance_missingParent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	orphan := testutil.CreateOrganization(t, f.repo, "Orphan", "deleted-parent", none, all)
	testutil.CreateTrail(t, f.trails, orphan.ID, "Own", true)

	trails, err := f.svc.VisibleTrails(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Len(t, trails, 1)

	devotionals, err := f.svc.InheritedDevotionals(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Empty(t, devotionals)

	_, err = f.svc.VisibleTrails(ctx, "nope")
	assert.Equal(t, org.ErrNotFound, errors.Cause(err))
}

func TestService_UpdateSharing(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	parent := testutil.CreateOrganization(t, f.repo, "Parent", "", none, none)
	child := testutil.CreateOrganization(t, f.repo, "Child", parent.ID, none, all)
	testutil.CreateTrail(t, f.trails, parent.ID, "Trail", true)

	trails, err := f.svc.InheritedTrails(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, trails)

	push := org.Sharing{Trails: true}
	_, err = f.svc.UpdateSharing(ctx, testutil.Admin(child.ID), parent.ID, org.UpdateSharing{Push: &push})
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	_, err = f.svc.UpdateSharing(ctx, testutil.Caller(parent.ID, "m1"), parent.ID, org.UpdateSharing{Push: &push})
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	o, err := f.svc.UpdateSharing(ctx, testutil.Admin(parent.ID), parent.ID, org.UpdateSharing{Push: &push})
	require.NoError(t, err)
	assert.Equal(t, push, o.Push)

	trails, err = f.svc.InheritedTrails(ctx, child.ID)
	require.NoError(t, err)
	assert.Len(t, trails, 1)

	pull := org.Sharing{}
	_, err = f.svc.UpdateSharing(ctx, testutil.Admin(child.ID), child.ID, org.UpdateSharing{Pull: &pull})
	require.NoError(t, err)
	trails, err = f.svc.InheritedTrails(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, trails)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	root, err := f.svc.Create(ctx, org.NewOrganization{Name: " Mother church ", Push: all})
	require.NoError(t, err)
	assert.Equal(t, "Mother church", root.Name)
	assert.True(t, root.IsRoot())

	child, err := f.svc.Create(ctx, org.NewOrganization{Name: "Plant", ParentID: root.ID, Pull: all})
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.ParentID)

	_, err = f.svc.Create(ctx, org.NewOrganization{Name: "Lost", ParentID: "nope"})
	require.Error(t, err)
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}
