package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/ecclesia/core/org"
)

type orgRepository struct {
	db *orgTables
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) org.Repository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrganization(ctx context.Context, id string) (org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.orgs[id]; ok {
		return *o, nil
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.orgs[o.ID]; !ok {
		return org.Organization{}, org.ErrNotFound
	}
	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) CreateEvent(ctx context.Context, e org.Event) (org.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.events[e.ID] = &e
	return e, nil
}

func (repo *orgRepository) QueryEvents(ctx context.Context, orgID string) ([]org.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]org.Event, 0)
	for _, e := range repo.db.events {
		if e.OrganizationID == orgID {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	return events, nil
}

func (repo *orgRepository) CreateDevotional(ctx context.Context, d org.Devotional) (org.Devotional, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.devotionals[d.ID] = &d
	return d, nil
}

func (repo *orgRepository) QueryDevotionals(ctx context.Context, orgID string) ([]org.Devotional, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	devotionals := make([]org.Devotional, 0)
	for _, d := range repo.db.devotionals {
		if d.OrganizationID == orgID {
			devotionals = append(devotionals, *d)
		}
	}
	sort.Slice(devotionals, func(i, j int) bool { return devotionals[i].PublishedAt.After(devotionals[j].PublishedAt) })
	return devotionals, nil
}
