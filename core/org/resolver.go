package org

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/trail"
)

// inheritsFrom returns the parent an organization inherits content of category `c` from.
// Content is inherited when the parent pushes it AND the child pulls it. Inheritance is single hop:
// the parent's own inherited content is not passed down. A parent that no longer exists is ignored.
func (svc *Service) inheritsFrom(ctx context.Context, o Organization, c Category) (Organization, bool, error) {
	if o.IsRoot() || !o.Pull.Allows(c) {
		return Organization{}, false, nil
	}
	parent, err := svc.repo.GetOrganization(ctx, o.ParentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Organization{}, false, nil
		}
		return Organization{}, false, errors.Wrap(err, "getting parent organization")
	}
	if !parent.Push.Allows(c) {
		return Organization{}, false, nil
	}
	return parent, true, nil
}

// InheritedTrails returns the parent's trails visible to the organization.
func (svc *Service) InheritedTrails(ctx context.Context, orgID string) ([]trail.Trail, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return svc.inheritedTrails(ctx, o)
}

func (svc *Service) inheritedTrails(ctx context.Context, o Organization) ([]trail.Trail, error) {
	parent, ok, err := svc.inheritsFrom(ctx, o, CategoryTrails)
	if err != nil || !ok {
		return []trail.Trail{}, err
	}
	trails, err := svc.trails.QueryTrails(ctx, trail.Filter{OrganizationID: parent.ID})
	return trails, errors.Wrap(err, "querying parent trails")
}

// VisibleTrails returns the organization's own trails followed by the ones it inherits.
func (svc *Service) VisibleTrails(ctx context.Context, orgID string) ([]trail.Trail, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	own, err := svc.trails.QueryTrails(ctx, trail.Filter{OrganizationID: o.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying trails")
	}
	inherited, err := svc.inheritedTrails(ctx, o)
	if err != nil {
		return nil, err
	}
	return append(own, inherited...), nil
}

// InheritedCourses returns the parent's courses visible to the organization: on top of the
// organization flags, each course must itself be shared with children.
func (svc *Service) InheritedCourses(ctx context.Context, orgID string) ([]course.Course, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return svc.inheritedCourses(ctx, o)
}

func (svc *Service) inheritedCourses(ctx context.Context, o Organization) ([]course.Course, error) {
	parent, ok, err := svc.inheritsFrom(ctx, o, CategoryCourses)
	if err != nil || !ok {
		return []course.Course{}, err
	}
	courses, err := svc.courses.QueryCourses(ctx, course.Filter{OrganizationID: parent.ID, SharedOnly: true})
	return courses, errors.Wrap(err, "querying parent courses")
}

func (svc *Service) VisibleCourses(ctx context.Context, orgID string) ([]course.Course, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	own, err := svc.courses.QueryCourses(ctx, course.Filter{OrganizationID: o.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	inherited, err := svc.inheritedCourses(ctx, o)
	if err != nil {
		return nil, err
	}
	return append(own, inherited...), nil
}

// CourseVisible tells whether the organization owns or inherits the course.
func (svc *Service) CourseVisible(ctx context.Context, orgID, courseID string) (bool, error) {
	courses, err := svc.VisibleCourses(ctx, orgID)
	if err != nil {
		return false, err
	}
	for _, c := range courses {
		if c.ID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) InheritedEvents(ctx context.Context, orgID string) ([]Event, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return svc.inheritedEvents(ctx, o)
}

func (svc *Service) inheritedEvents(ctx context.Context, o Organization) ([]Event, error) {
	parent, ok, err := svc.inheritsFrom(ctx, o, CategoryEvents)
	if err != nil || !ok {
		return []Event{}, err
	}
	events, err := svc.repo.QueryEvents(ctx, parent.ID)
	return events, errors.Wrap(err, "querying parent events")
}

func (svc *Service) VisibleEvents(ctx context.Context, orgID string) ([]Event, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	own, err := svc.repo.QueryEvents(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	inherited, err := svc.inheritedEvents(ctx, o)
	if err != nil {
		return nil, err
	}
	return append(own, inherited...), nil
}

func (svc *Service) InheritedDevotionals(ctx context.Context, orgID string) ([]Devotional, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return svc.inheritedDevotionals(ctx, o)
}

func (svc *Service) inheritedDevotionals(ctx context.Context, o Organization) ([]Devotional, error) {
	parent, ok, err := svc.inheritsFrom(ctx, o, CategoryDevotionals)
	if err != nil || !ok {
		return []Devotional{}, err
	}
	devotionals, err := svc.repo.QueryDevotionals(ctx, parent.ID)
	return devotionals, errors.Wrap(err, "querying parent devotionals")
}

func (svc *Service) VisibleDevotionals(ctx context.Context, orgID string) ([]Devotional, error) {
	o, err := svc.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	own, err := svc.repo.QueryDevotionals(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying devotionals")
	}
	inherited, err := svc.inheritedDevotionals(ctx, o)
	if err != nil {
		return nil, err
	}
	return append(own, inherited...), nil
}
