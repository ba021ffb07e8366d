package org

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/trail"
)

var (
	// errors
	ErrNotFound = errors.New("organization not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateOrganization(ctx context.Context, o Organization) (Organization, error)
		GetOrganization(ctx context.Context, id string) (Organization, error)
		UpdateOrganization(ctx context.Context, o Organization) (Organization, error)

		CreateEvent(ctx context.Context, e Event) (Event, error)
		QueryEvents(ctx context.Context, orgID string) ([]Event, error)

		CreateDevotional(ctx context.Context, d Devotional) (Devotional, error)
		QueryDevotionals(ctx context.Context, orgID string) ([]Devotional, error)
	}

	// TrailLister is the part of trail.Repository the resolver reads.
	TrailLister interface {
		QueryTrails(ctx context.Context, filter trail.Filter) ([]trail.Trail, error)
	}

	// CourseLister is the part of course.Repository the resolver reads.
	CourseLister interface {
		QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error)
	}

	Service struct {
		repo     Repository
		trails   TrailLister
		courses  CourseLister
		validate *validator.Validate
	}

	NewOrganization struct {
		Name     string  `json:"name" validate:"required,notblank,max=200"`
		ParentID string  `json:"parentId"`
		Push     Sharing `json:"push"`
		Pull     Sharing `json:"pull"`
	}

	UpdateSharing struct {
		Push *Sharing `json:"push"`
		Pull *Sharing `json:"pull"`
	}

	NewEvent struct {
		Title       string    `json:"title" validate:"required,notblank,max=200"`
		Description string    `json:"description"`
		Location    string    `json:"location" validate:"max=500"`
		StartsAt    time.Time `json:"startsAt" validate:"required"`
	}

	NewDevotional struct {
		Title       string    `json:"title" validate:"required,notblank,max=200"`
		Body        string    `json:"body" validate:"required"`
		PublishedAt time.Time `json:"publishedAt"`
	}
)

var _ trail.Visibility = (*Service)(nil)

func NewService(repo Repository, trails TrailLister, courses CourseLister, validate *validator.Validate) *Service {
	return &Service{repo: repo, trails: trails, courses: courses, validate: validate}
}

func (svc *Service) Get(ctx context.Context, id string) (Organization, error) {
	o, err := svc.repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, errors.Wrapf(err, "organization %s", id)
	}
	return o, nil
}

// Create registers an organization provisioned by tenant management.
func (svc *Service) Create(ctx context.Context, no NewOrganization) (Organization, error) {
	if err := svc.validate.Struct(no); err != nil {
		return Organization{}, err
	}
	parentID := core.CleanString(no.ParentID)
	if parentID != "" {
		if _, err := svc.Get(ctx, parentID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Organization{}, core.NewValidationError(nil, core.FieldError{Field: "parentId", Error: "unknown organization"})
			}
			return Organization{}, err
		}
	}
	now := nowFunc().UTC()
	o, err := svc.repo.CreateOrganization(ctx, Organization{
		ID:        uuid.New().String(),
		Name:      core.CleanString(no.Name),
		ParentID:  parentID,
		Push:      no.Push,
		Pull:      no.Pull,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return o, errors.Wrap(err, "creating organization")
}

// UpdateSharing toggles the push (to children) and pull (from parent) flags of the caller's organization.
func (svc *Service) UpdateSharing(ctx context.Context, caller core.Caller, id string, us UpdateSharing) (Organization, error) {
	if !caller.Administers(id, core.CapManageContent) {
		return Organization{}, core.ErrPermissionDenied
	}
	o, err := svc.Get(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if us.Push != nil {
		o.Push = *us.Push
	}
	if us.Pull != nil {
		o.Pull = *us.Pull
	}
	o.UpdatedAt = nowFunc().UTC()
	o, err = svc.repo.UpdateOrganization(ctx, o)
	return o, errors.Wrap(err, "updating organization")
}

func (svc *Service) CreateEvent(ctx context.Context, caller core.Caller, ne NewEvent) (Event, error) {
	if !caller.Can(core.CapManageContent) {
		return Event{}, core.ErrPermissionDenied
	}
	if err := svc.validate.Struct(ne); err != nil {
		return Event{}, err
	}
	e, err := svc.repo.CreateEvent(ctx, Event{
		ID:             uuid.New().String(),
		OrganizationID: caller.OrganizationID,
		Title:          core.CleanString(ne.Title),
		Description:    ne.Description,
		Location:       core.CleanString(ne.Location),
		StartsAt:       ne.StartsAt.UTC(),
		CreatedAt:      nowFunc().UTC(),
	})
	return e, errors.Wrap(err, "creating event")
}

func (svc *Service) CreateDevotional(ctx context.Context, caller core.Caller, nd NewDevotional) (Devotional, error) {
	if !caller.Can(core.CapManageContent) {
		return Devotional{}, core.ErrPermissionDenied
	}
	if err := svc.validate.Struct(nd); err != nil {
		return Devotional{}, err
	}
	now := nowFunc().UTC()
	published := nd.PublishedAt.UTC()
	if nd.PublishedAt.IsZero() {
		published = now
	}
	d, err := svc.repo.CreateDevotional(ctx, Devotional{
		ID:             uuid.New().String(),
		OrganizationID: caller.OrganizationID,
		Title:          core.CleanString(nd.Title),
		Body:           nd.Body,
		PublishedAt:    published,
		CreatedAt:      now,
	})
	return d, errors.Wrap(err, "creating devotional")
}
