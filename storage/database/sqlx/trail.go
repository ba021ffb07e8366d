package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ecclesia/core/trail"
)

type (
	trailRepository struct {
		db *sqlx.DB
	}

	trailRow struct {
		ID             string    `db:"id"`
		OrganizationID string    `db:"organization_id"`
		Title          string    `db:"title"`
		Description    string    `db:"description"`
		Active         bool      `db:"active"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	stageRow struct {
		ID        string    `db:"id"`
		TrailID   string    `db:"trail_id"`
		Title     string    `db:"title"`
		Order     int       `db:"sort_order"`
		CreatedAt time.Time `db:"created_at"`
	}

	stepRow struct {
		ID        string    `db:"id"`
		StageID   string    `db:"stage_id"`
		TrailID   string    `db:"trail_id"`
		Title     string    `db:"title"`
		Order     int       `db:"sort_order"`
		CreatedAt time.Time `db:"created_at"`
	}

	stepCompletionRow struct {
		StepID      string    `db:"step_id"`
		TrailID     string    `db:"trail_id"`
		MemberID    string    `db:"member_id"`
		CompletedAt time.Time `db:"completed_at"`
	}
)

var _ trail.Repository = (*trailRepository)(nil) // interface compliance check

func NewTrailRepository(db *sqlx.DB) trail.Repository {
	return &trailRepository{db: db}
}

const (
	trailColumns          = "id, organization_id, title, description, active, created_at, updated_at"
	stageColumns          = "id, trail_id, title, sort_order, created_at"
	stepColumns           = "id, stage_id, trail_id, title, sort_order, created_at"
	stepCompletionColumns = "step_id, trail_id, member_id, completed_at"
)

func (r trailRow) toTrail() trail.Trail {
	return trail.Trail{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Title:          r.Title,
		Description:    r.Description,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func newTrailRow(t trail.Trail) trailRow {
	return trailRow{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Title:          t.Title,
		Description:    t.Description,
		Active:         t.Active,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
	}
}

func (repo *trailRepository) CreateTrail(ctx context.Context, t trail.Trail) (trail.Trail, error) {
	row := newTrailRow(t)
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO trail (`+trailColumns+`) VALUES (
		:id, :organization_id, :title, :description, :active, :created_at, :updated_at)`, row)
	if err != nil {
		return trail.Trail{}, wrap(err, "inserting trail")
	}
	return row.toTrail(), nil
}

func (repo *trailRepository) GetTrail(ctx context.Context, id string) (trail.Trail, error) {
	var row trailRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+trailColumns+" FROM trail WHERE id = ?"), id); err != nil {
		return trail.Trail{}, notFound(err, trail.ErrNotFound, "selecting trail")
	}
	return row.toTrail(), nil
}

func (repo *trailRepository) QueryTrails(ctx context.Context, filter trail.Filter) ([]trail.Trail, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.OrganizationID != "" {
		conds = append(conds, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}
	if filter.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *filter.Active)
	}

	q := "SELECT " + trailColumns + " FROM trail"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at, id"

	var rows []trailRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrap(err, "selecting trails")
	}
	trails := make([]trail.Trail, 0, len(rows))
	for _, row := range rows {
		trails = append(trails, row.toTrail())
	}
	return trails, nil
}

func (repo *trailRepository) UpdateTrail(ctx context.Context, t trail.Trail) (trail.Trail, error) {
	row := newTrailRow(t)
	res, err := repo.db.NamedExecContext(ctx, `UPDATE trail SET title = :title, description = :description,
		active = :active, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return trail.Trail{}, wrap(err, "updating trail")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return trail.Trail{}, trail.ErrNotFound
	}
	return repo.GetTrail(ctx, t.ID)
}

func (repo *trailRepository) CreateStage(ctx context.Context, s trail.Stage) (trail.Stage, error) {
	row := stageRow{ID: s.ID, TrailID: s.TrailID, Title: s.Title, Order: s.Order, CreatedAt: s.CreatedAt.UTC()}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO trail_stage (`+stageColumns+`) VALUES (
		:id, :trail_id, :title, :sort_order, :created_at)`, row)
	if err != nil {
		return trail.Stage{}, wrap(err, "inserting stage")
	}
	s.CreatedAt = row.CreatedAt
	return s, nil
}

func (repo *trailRepository) GetStage(ctx context.Context, id string) (trail.Stage, error) {
	var row stageRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+stageColumns+" FROM trail_stage WHERE id = ?"), id); err != nil {
		return trail.Stage{}, notFound(err, trail.ErrNotFound, "selecting stage")
	}
	return trail.Stage{ID: row.ID, TrailID: row.TrailID, Title: row.Title, Order: row.Order, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (repo *trailRepository) QueryStages(ctx context.Context, trailID string) ([]trail.Stage, error) {
	var rows []stageRow
	q := "SELECT " + stageColumns + " FROM trail_stage WHERE trail_id = ? ORDER BY sort_order, created_at, id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), trailID); err != nil {
		return nil, wrap(err, "selecting stages")
	}
	stages := make([]trail.Stage, 0, len(rows))
	for _, row := range rows {
		stages = append(stages, trail.Stage{ID: row.ID, TrailID: row.TrailID, Title: row.Title, Order: row.Order, CreatedAt: row.CreatedAt.UTC()})
	}
	return stages, nil
}

func (r stepRow) toStep() trail.Step {
	return trail.Step{ID: r.ID, StageID: r.StageID, TrailID: r.TrailID, Title: r.Title, Order: r.Order, CreatedAt: r.CreatedAt.UTC()}
}

func (repo *trailRepository) CreateStep(ctx context.Context, s trail.Step) (trail.Step, error) {
	row := stepRow{ID: s.ID, StageID: s.StageID, TrailID: s.TrailID, Title: s.Title, Order: s.Order, CreatedAt: s.CreatedAt.UTC()}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO trail_step (`+stepColumns+`) VALUES (
		:id, :stage_id, :trail_id, :title, :sort_order, :created_at)`, row)
	if err != nil {
		return trail.Step{}, wrap(err, "inserting step")
	}
	return row.toStep(), nil
}

func (repo *trailRepository) GetStep(ctx context.Context, id string) (trail.Step, error) {
	var row stepRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+stepColumns+" FROM trail_step WHERE id = ?"), id); err != nil {
		return trail.Step{}, notFound(err, trail.ErrNotFound, "selecting step")
	}
	return row.toStep(), nil
}

func (repo *trailRepository) QuerySteps(ctx context.Context, trailID string) ([]trail.Step, error) {
	var rows []stepRow
	q := "SELECT " + stepColumns + " FROM trail_step WHERE trail_id = ? ORDER BY sort_order, created_at, id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), trailID); err != nil {
		return nil, wrap(err, "selecting steps")
	}
	steps := make([]trail.Step, 0, len(rows))
	for _, row := range rows {
		steps = append(steps, row.toStep())
	}
	return steps, nil
}

func (repo *trailRepository) UpsertStepCompletion(ctx context.Context, c trail.StepCompletion) (trail.StepCompletion, error) {
	row := stepCompletionRow{StepID: c.StepID, TrailID: c.TrailID, MemberID: c.MemberID, CompletedAt: c.CompletedAt.UTC()}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO trail_step_completion (`+stepCompletionColumns+`) VALUES (
		:step_id, :trail_id, :member_id, :completed_at) ON CONFLICT (step_id, member_id) DO NOTHING`, row)
	if err != nil {
		return trail.StepCompletion{}, wrap(err, "inserting step completion")
	}

	var stored stepCompletionRow
	q := "SELECT " + stepCompletionColumns + " FROM trail_step_completion WHERE step_id = ? AND member_id = ?"
	if err = repo.db.GetContext(ctx, &stored, repo.db.Rebind(q), c.StepID, c.MemberID); err != nil {
		return trail.StepCompletion{}, wrap(err, "selecting step completion")
	}
	return trail.StepCompletion{
		StepID:      stored.StepID,
		TrailID:     stored.TrailID,
		MemberID:    stored.MemberID,
		CompletedAt: stored.CompletedAt.UTC(),
	}, nil
}

func (repo *trailRepository) DeleteStepCompletion(ctx context.Context, stepID, memberID string) error {
	_, err := repo.db.ExecContext(ctx,
		repo.db.Rebind("DELETE FROM trail_step_completion WHERE step_id = ? AND member_id = ?"), stepID, memberID)
	return wrap(err, "deleting step completion")
}

func (repo *trailRepository) QueryStepCompletions(ctx context.Context, trailID, memberID string) ([]trail.StepCompletion, error) {
	var rows []stepCompletionRow
	q := "SELECT " + stepCompletionColumns + " FROM trail_step_completion WHERE trail_id = ? AND member_id = ?"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), trailID, memberID); err != nil {
		return nil, wrap(err, "selecting step completions")
	}
	comps := make([]trail.StepCompletion, 0, len(rows))
	for _, row := range rows {
		comps = append(comps, trail.StepCompletion{
			StepID:      row.StepID,
			TrailID:     row.TrailID,
			MemberID:    row.MemberID,
			CompletedAt: row.CompletedAt.UTC(),
		})
	}
	return comps, nil
}
