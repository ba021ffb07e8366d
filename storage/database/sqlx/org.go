package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecclesia/core/org"
)

type (
	orgRepository struct {
		db *sqlx.DB
	}

	orgRow struct {
		ID              string      `db:"id"`
		Name            string      `db:"name"`
		ParentID        null.String `db:"parent_id"`
		PushTrails      bool        `db:"push_trails"`
		PushCourses     bool        `db:"push_courses"`
		PushEvents      bool        `db:"push_events"`
		PushDevotionals bool        `db:"push_devotionals"`
		PullTrails      bool        `db:"pull_trails"`
		PullCourses     bool        `db:"pull_courses"`
		PullEvents      bool        `db:"pull_events"`
		PullDevotionals bool        `db:"pull_devotionals"`
		CreatedAt       time.Time   `db:"created_at"`
		UpdatedAt       time.Time   `db:"updated_at"`
	}

	eventRow struct {
		ID             string    `db:"id"`
		OrganizationID string    `db:"organization_id"`
		Title          string    `db:"title"`
		Description    string    `db:"description"`
		Location       string    `db:"location"`
		StartsAt       time.Time `db:"starts_at"`
		CreatedAt      time.Time `db:"created_at"`
	}

	devotionalRow struct {
		ID             string    `db:"id"`
		OrganizationID string    `db:"organization_id"`
		Title          string    `db:"title"`
		Body           string    `db:"body"`
		PublishedAt    time.Time `db:"published_at"`
		CreatedAt      time.Time `db:"created_at"`
	}
)

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sqlx.DB) org.Repository {
	return &orgRepository{db: db}
}

const (
	orgColumns = "id, name, parent_id, push_trails, push_courses, push_events, push_devotionals, " +
		"pull_trails, pull_courses, pull_events, pull_devotionals, created_at, updated_at"
	eventColumns      = "id, organization_id, title, description, location, starts_at, created_at"
	devotionalColumns = "id, organization_id, title, body, published_at, created_at"
)

func newOrgRow(o org.Organization) orgRow {
	return orgRow{
		ID:              o.ID,
		Name:            o.Name,
		ParentID:        null.NewString(o.ParentID, o.ParentID != ""),
		PushTrails:      o.Push.Trails,
		PushCourses:     o.Push.Courses,
		PushEvents:      o.Push.Events,
		PushDevotionals: o.Push.Devotionals,
		PullTrails:      o.Pull.Trails,
		PullCourses:     o.Pull.Courses,
		PullEvents:      o.Pull.Events,
		PullDevotionals: o.Pull.Devotionals,
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}
}

func (r orgRow) toOrganization() org.Organization {
	return org.Organization{
		ID:       r.ID,
		Name:     r.Name,
		ParentID: r.ParentID.String,
		Push: org.Sharing{
			Trails:      r.PushTrails,
			Courses:     r.PushCourses,
			Events:      r.PushEvents,
			Devotionals: r.PushDevotionals,
		},
		Pull: org.Sharing{
			Trails:      r.PullTrails,
			Courses:     r.PullCourses,
			Events:      r.PullEvents,
			Devotionals: r.PullDevotionals,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	row := newOrgRow(o)
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO organization (`+orgColumns+`) VALUES (
		:id, :name, :parent_id, :push_trails, :push_courses, :push_events, :push_devotionals,
		:pull_trails, :pull_courses, :pull_events, :pull_devotionals, :created_at, :updated_at)`, row)
	if err != nil {
		return org.Organization{}, wrap(err, "inserting organization")
	}
	return row.toOrganization(), nil
}

func (repo *orgRepository) GetOrganization(ctx context.Context, id string) (org.Organization, error) {
	var row orgRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+orgColumns+" FROM organization WHERE id = ?"), id); err != nil {
		return org.Organization{}, notFound(err, org.ErrNotFound, "selecting organization")
	}
	return row.toOrganization(), nil
}

func (repo *orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	row := newOrgRow(o)
	res, err := repo.db.NamedExecContext(ctx, `UPDATE organization SET name = :name,
		push_trails = :push_trails, push_courses = :push_courses, push_events = :push_events, push_devotionals = :push_devotionals,
		pull_trails = :pull_trails, pull_courses = :pull_courses, pull_events = :pull_events, pull_devotionals = :pull_devotionals,
		updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return org.Organization{}, wrap(err, "updating organization")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return org.Organization{}, org.ErrNotFound
	}
	return repo.GetOrganization(ctx, o.ID)
}

func (repo *orgRepository) CreateEvent(ctx context.Context, e org.Event) (org.Event, error) {
	row := eventRow{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		StartsAt:       e.StartsAt.UTC(),
		CreatedAt:      e.CreatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO event (`+eventColumns+`) VALUES (
		:id, :organization_id, :title, :description, :location, :starts_at, :created_at)`, row)
	if err != nil {
		return org.Event{}, wrap(err, "inserting event")
	}
	e.StartsAt, e.CreatedAt = row.StartsAt, row.CreatedAt
	return e, nil
}

func (repo *orgRepository) QueryEvents(ctx context.Context, orgID string) ([]org.Event, error) {
	var rows []eventRow
	q := "SELECT " + eventColumns + " FROM event WHERE organization_id = ? ORDER BY starts_at, id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), orgID); err != nil {
		return nil, wrap(err, "selecting events")
	}
	events := make([]org.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, org.Event{
			ID:             r.ID,
			OrganizationID: r.OrganizationID,
			Title:          r.Title,
			Description:    r.Description,
			Location:       r.Location,
			StartsAt:       r.StartsAt.UTC(),
			CreatedAt:      r.CreatedAt.UTC(),
		})
	}
	return events, nil
}

func (repo *orgRepository) CreateDevotional(ctx context.Context, d org.Devotional) (org.Devotional, error) {
	row := devotionalRow{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Title:          d.Title,
		Body:           d.Body,
		PublishedAt:    d.PublishedAt.UTC(),
		CreatedAt:      d.CreatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO devotional (`+devotionalColumns+`) VALUES (
		:id, :organization_id, :title, :body, :published_at, :created_at)`, row)
	if err != nil {
		return org.Devotional{}, wrap(err, "inserting devotional")
	}
	d.PublishedAt, d.CreatedAt = row.PublishedAt, row.CreatedAt
	return d, nil
}

// QueryDevotionals lists the devotionals of an organization, most recent first.
func (repo *orgRepository) QueryDevotionals(ctx context.Context, orgID string) ([]org.Devotional, error) {
	var rows []devotionalRow
	q := "SELECT " + devotionalColumns + " FROM devotional WHERE organization_id = ? ORDER BY published_at DESC, id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), orgID); err != nil {
		return nil, wrap(err, "selecting devotionals")
	}
	devotionals := make([]org.Devotional, 0, len(rows))
	for _, r := range rows {
		devotionals = append(devotionals, org.Devotional{
			ID:             r.ID,
			OrganizationID: r.OrganizationID,
			Title:          r.Title,
			Body:           r.Body,
			PublishedAt:    r.PublishedAt.UTC(),
			CreatedAt:      r.CreatedAt.UTC(),
		})
	}
	return devotionals, nil
}
