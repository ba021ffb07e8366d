package trail

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

var (
	// errors
	ErrNotFound = errors.New("not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateTrail(ctx context.Context, t Trail) (Trail, error)
		GetTrail(ctx context.Context, id string) (Trail, error)
		QueryTrails(ctx context.Context, filter Filter) ([]Trail, error)
		UpdateTrail(ctx context.Context, t Trail) (Trail, error)

		CreateStage(ctx context.Context, s Stage) (Stage, error)
		GetStage(ctx context.Context, id string) (Stage, error)
		QueryStages(ctx context.Context, trailID string) ([]Stage, error)

		CreateStep(ctx context.Context, s Step) (Step, error)
		GetStep(ctx context.Context, id string) (Step, error)
		QuerySteps(ctx context.Context, trailID string) ([]Step, error)

		// UpsertStepCompletion inserts the completion unless it already exists.
		UpsertStepCompletion(ctx context.Context, c StepCompletion) (StepCompletion, error)
		DeleteStepCompletion(ctx context.Context, stepID, memberID string) error
		QueryStepCompletions(ctx context.Context, trailID, memberID string) ([]StepCompletion, error)
	}

	// Visibility lists the trails an organization can see: its own and the ones it inherits.
	Visibility interface {
		VisibleTrails(ctx context.Context, orgID string) ([]Trail, error)
	}

	Service struct {
		repo       Repository
		visibility Visibility
		validate   *validator.Validate
	}

	NewTrail struct {
		Title       string `json:"title" validate:"required,notblank,max=200"`
		Description string `json:"description" validate:"max=5000"`
	}

	NewStage struct {
		Title string `json:"title" validate:"required,notblank,max=200"`
		Order int    `json:"order" validate:"min=0"` // 0 appends the stage
	}

	NewStep struct {
		Title string `json:"title" validate:"required,notblank,max=200"`
		Order int    `json:"order" validate:"min=0"` // 0 appends the step
	}
)

// NewService returns a trail Service. Without visibility, organizations only see their own trails.
func NewService(repo Repository, visibility Visibility, validate *validator.Validate) *Service {
	return &Service{repo: repo, visibility: visibility, validate: validate}
}

func (svc *Service) GetTrail(ctx context.Context, id string) (Trail, error) {
	t, err := svc.repo.GetTrail(ctx, id)
	if err != nil {
		return Trail{}, errors.Wrapf(err, "trail %s", id)
	}
	return t, nil
}

// Structure returns the stages and steps of a trail, in order.
func (svc *Service) Structure(ctx context.Context, trailID string) ([]Stage, []Step, error) {
	stages, err := svc.repo.QueryStages(ctx, trailID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying stages")
	}
	steps, err := svc.repo.QuerySteps(ctx, trailID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying steps")
	}
	SortStages(stages)
	SortSteps(steps)
	return stages, steps, nil
}

// Progress computes a member's progress on a trail.
func (svc *Service) Progress(ctx context.Context, trailID, memberID string) (Progress, error) {
	t, err := svc.GetTrail(ctx, trailID)
	if err != nil {
		return Progress{}, err
	}
	stages, steps, err := svc.Structure(ctx, t.ID)
	if err != nil {
		return Progress{}, err
	}
	comps, err := svc.repo.QueryStepCompletions(ctx, t.ID, memberID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "querying step completions")
	}
	completed := make(map[string]bool, len(comps))
	for _, c := range comps {
		completed[c.StepID] = true
	}

	prog := Calculate(stages, steps, completed)
	prog.TrailID = t.ID
	return prog, nil
}

// ActiveTrail returns the trail an organization currently follows: its own active trail if any,
// else the active trail it inherits. ok is false when there is none.
func (svc *Service) ActiveTrail(ctx context.Context, orgID string) (t Trail, ok bool, err error) {
	var trails []Trail
	if svc.visibility != nil {
		trails, err = svc.visibility.VisibleTrails(ctx, orgID)
	} else {
		trails, err = svc.repo.QueryTrails(ctx, Filter{OrganizationID: orgID})
	}
	if err != nil {
		return Trail{}, false, errors.Wrap(err, "listing visible trails")
	}

	var own, inherited []Trail
	for _, tr := range trails {
		if !tr.Active {
			continue
		}
		if tr.OrganizationID == orgID {
			own = append(own, tr)
		} else {
			inherited = append(inherited, tr)
		}
	}
	for _, candidates := range [][]Trail{own, inherited} {
		if len(candidates) == 0 {
			continue
		}
		// only one trail should be active, the most recent wins otherwise
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].CreatedAt.After(candidates[j].CreatedAt) })
		return candidates[0], true, nil
	}
	return Trail{}, false, nil
}

// ActiveProgress computes a member's progress on the active trail of an organization.
// Without an active trail, the zero Progress is returned.
func (svc *Service) ActiveProgress(ctx context.Context, orgID, memberID string) (Progress, error) {
	t, ok, err := svc.ActiveTrail(ctx, orgID)
	if err != nil {
		return Progress{}, err
	}
	if !ok {
		return Progress{Stages: []StageProgress{}}, nil
	}
	return svc.Progress(ctx, t.ID, memberID)
}

// CompleteStep marks a trail step as completed by the member; completing it again is a no-op.
func (svc *Service) CompleteStep(ctx context.Context, caller core.Caller, stepID, memberID string) (StepCompletion, error) {
	if !caller.ActsFor(memberID) {
		return StepCompletion{}, core.ErrPermissionDenied
	}
	st, err := svc.repo.GetStep(ctx, stepID)
	if err != nil {
		return StepCompletion{}, errors.Wrapf(err, "step %s", stepID)
	}
	c, err := svc.repo.UpsertStepCompletion(ctx, StepCompletion{
		StepID:      st.ID,
		TrailID:     st.TrailID,
		MemberID:    memberID,
		CompletedAt: nowFunc().UTC(),
	})
	return c, errors.Wrap(err, "upserting step completion")
}

func (svc *Service) UncompleteStep(ctx context.Context, caller core.Caller, stepID, memberID string) error {
	if !caller.ActsFor(memberID) {
		return core.ErrPermissionDenied
	}
	if _, err := svc.repo.GetStep(ctx, stepID); err != nil {
		return errors.Wrapf(err, "step %s", stepID)
	}
	return errors.Wrap(svc.repo.DeleteStepCompletion(ctx, stepID, memberID), "deleting step completion")
}

func (svc *Service) CreateTrail(ctx context.Context, caller core.Caller, nt NewTrail) (Trail, error) {
	if !caller.Can(core.CapManageContent) {
		return Trail{}, core.ErrPermissionDenied
	}
	if err := svc.validate.Struct(nt); err != nil {
		return Trail{}, err
	}
	now := nowFunc().UTC()
	t, err := svc.repo.CreateTrail(ctx, Trail{
		ID:             uuid.New().String(),
		OrganizationID: caller.OrganizationID,
		Title:          core.CleanString(nt.Title),
		Description:    nt.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return t, errors.Wrap(err, "creating trail")
}

// ActivateTrail makes the trail the active one of its organization, deactivating the others.
func (svc *Service) ActivateTrail(ctx context.Context, caller core.Caller, id string) (Trail, error) {
	t, err := svc.trailForAdmin(ctx, caller, id)
	if err != nil {
		return Trail{}, err
	}
	active := true
	others, err := svc.repo.QueryTrails(ctx, Filter{OrganizationID: t.OrganizationID, Active: &active})
	if err != nil {
		return Trail{}, errors.Wrap(err, "querying active trails")
	}
	now := nowFunc().UTC()
	for _, o := range others {
		if o.ID == t.ID {
			continue
		}
		o.Active = false
		o.UpdatedAt = now
		if _, err = svc.repo.UpdateTrail(ctx, o); err != nil {
			return Trail{}, errors.Wrapf(err, "deactivating trail %s", o.ID)
		}
	}
	t.Active = true
	t.UpdatedAt = now
	t, err = svc.repo.UpdateTrail(ctx, t)
	return t, errors.Wrap(err, "activating trail")
}

func (svc *Service) AddStage(ctx context.Context, caller core.Caller, trailID string, ns NewStage) (Stage, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return Stage{}, err
	}
	t, err := svc.trailForAdmin(ctx, caller, trailID)
	if err != nil {
		return Stage{}, err
	}
	order := ns.Order
	if order == 0 {
		stages, err := svc.repo.QueryStages(ctx, t.ID)
		if err != nil {
			return Stage{}, errors.Wrap(err, "querying stages")
		}
		for _, s := range stages {
			if s.Order >= order {
				order = s.Order
			}
		}
		order++
	}
	s, err := svc.repo.CreateStage(ctx, Stage{
		ID:        uuid.New().String(),
		TrailID:   t.ID,
		Title:     core.CleanString(ns.Title),
		Order:     order,
		CreatedAt: nowFunc().UTC(),
	})
	return s, errors.Wrap(err, "creating stage")
}

func (svc *Service) AddStep(ctx context.Context, caller core.Caller, stageID string, ns NewStep) (Step, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return Step{}, err
	}
	stage, err := svc.repo.GetStage(ctx, stageID)
	if err != nil {
		return Step{}, errors.Wrapf(err, "stage %s", stageID)
	}
	if _, err = svc.trailForAdmin(ctx, caller, stage.TrailID); err != nil {
		return Step{}, err
	}
	order := ns.Order
	if order == 0 {
		steps, err := svc.repo.QuerySteps(ctx, stage.TrailID)
		if err != nil {
			return Step{}, errors.Wrap(err, "querying steps")
		}
		for _, s := range steps {
			if s.StageID == stage.ID && s.Order >= order {
				order = s.Order
			}
		}
		order++
	}
	s, err := svc.repo.CreateStep(ctx, Step{
		ID:        uuid.New().String(),
		StageID:   stage.ID,
		TrailID:   stage.TrailID,
		Title:     core.CleanString(ns.Title),
		Order:     order,
		CreatedAt: nowFunc().UTC(),
	})
	return s, errors.Wrap(err, "creating step")
}

func (svc *Service) trailForAdmin(ctx context.Context, caller core.Caller, id string) (Trail, error) {
	t, err := svc.GetTrail(ctx, id)
	if err != nil {
		return Trail{}, err
	}
	if !caller.Administers(t.OrganizationID, core.CapManageContent) {
		return Trail{}, core.ErrPermissionDenied
	}
	return t, nil
}
