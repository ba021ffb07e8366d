package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/ecclesia/core/trail"
)

type trailRepository struct {
	db *trailTables
}

var _ trail.Repository = (*trailRepository)(nil) // interface compliance check

func NewTrailRepository(db *DB) trail.Repository {
	return &trailRepository{db: db.trail}
}

func (repo *trailRepository) CreateTrail(ctx context.Context, t trail.Trail) (trail.Trail, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.trails[t.ID] = &t
	return t, nil
}

func (repo *trailRepository) GetTrail(ctx context.Context, id string) (trail.Trail, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.trails[id]; ok {
		return *t, nil
	}
	return trail.Trail{}, trail.ErrNotFound
}

func (repo *trailRepository) QueryTrails(ctx context.Context, filter trail.Filter) ([]trail.Trail, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	trails := make([]trail.Trail, 0)
	for _, t := range repo.db.trails {
		if filter.OrganizationID != "" && t.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Active != nil && t.Active != *filter.Active {
			continue
		}
		trails = append(trails, *t)
	}
	sort.Slice(trails, func(i, j int) bool {
		if !trails[i].CreatedAt.Equal(trails[j].CreatedAt) {
			return trails[i].CreatedAt.Before(trails[j].CreatedAt)
		}
		return trails[i].ID < trails[j].ID
	})
	return trails, nil
}

func (repo *trailRepository) UpdateTrail(ctx context.Context, t trail.Trail) (trail.Trail, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.trails[t.ID]; !ok {
		return trail.Trail{}, trail.ErrNotFound
	}
	repo.db.trails[t.ID] = &t
	return t, nil
}

func (repo *trailRepository) CreateStage(ctx context.Context, s trail.Stage) (trail.Stage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.stages[s.ID] = &s
	return s, nil
}

func (repo *trailRepository) GetStage(ctx context.Context, id string) (trail.Stage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.stages[id]; ok {
		return *s, nil
	}
	return trail.Stage{}, trail.ErrNotFound
}

func (repo *trailRepository) QueryStages(ctx context.Context, trailID string) ([]trail.Stage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stages := make([]trail.Stage, 0)
	for _, s := range repo.db.stages {
		if s.TrailID == trailID {
			stages = append(stages, *s)
		}
	}
	trail.SortStages(stages)
	return stages, nil
}

func (repo *trailRepository) CreateStep(ctx context.Context, s trail.Step) (trail.Step, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.steps[s.ID] = &s
	return s, nil
}

func (repo *trailRepository) GetStep(ctx context.Context, id string) (trail.Step, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.steps[id]; ok {
		return *s, nil
	}
	return trail.Step{}, trail.ErrNotFound
}

func (repo *trailRepository) QuerySteps(ctx context.Context, trailID string) ([]trail.Step, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	steps := make([]trail.Step, 0)
	for _, s := range repo.db.steps {
		if s.TrailID == trailID {
			steps = append(steps, *s)
		}
	}
	trail.SortSteps(steps)
	return steps, nil
}

func (repo *trailRepository) UpsertStepCompletion(ctx context.Context, c trail.StepCompletion) (trail.StepCompletion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := memberKey{c.StepID, c.MemberID}
	if existing, ok := repo.db.completions[key]; ok {
		return *existing, nil
	}
	repo.db.completions[key] = &c
	return c, nil
}

func (repo *trailRepository) DeleteStepCompletion(ctx context.Context, stepID, memberID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.completions, memberKey{stepID, memberID})
	return nil
}

func (repo *trailRepository) QueryStepCompletions(ctx context.Context, trailID, memberID string) ([]trail.StepCompletion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comps := make([]trail.StepCompletion, 0)
	for _, c := range repo.db.completions {
		if c.TrailID == trailID && c.MemberID == memberID {
			comps = append(comps, *c)
		}
	}
	return comps, nil
}
