package org

import "time"

// Category is a kind of content an organization may share with its children.
type Category string

const (
	CategoryTrails      Category = "trails"
	CategoryCourses     Category = "courses"
	CategoryEvents      Category = "events"
	CategoryDevotionals Category = "devotionals"
)

type (
	// Sharing holds one independent flag per content category.
	Sharing struct {
		Trails      bool `json:"trails"`
		Courses     bool `json:"courses"`
		Events      bool `json:"events"`
		Devotionals bool `json:"devotionals"`
	}

	Organization struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ParentID string `json:"parentId,omitempty"` // empty for a root organization
		// Push: content this organization shares with its children.
		Push Sharing `json:"push"`
		// Pull: content this organization accepts from its parent. Ignored without a parent.
		Pull      Sharing   `json:"pull"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Event struct {
		ID             string    `json:"id"`
		OrganizationID string    `json:"organizationId"`
		Title          string    `json:"title"`
		Description    string    `json:"description,omitempty"`
		Location       string    `json:"location,omitempty"`
		StartsAt       time.Time `json:"startsAt"`
		CreatedAt      time.Time `json:"createdAt"`
	}

	Devotional struct {
		ID             string    `json:"id"`
		OrganizationID string    `json:"organizationId"`
		Title          string    `json:"title"`
		Body           string    `json:"body"`
		PublishedAt    time.Time `json:"publishedAt"`
		CreatedAt      time.Time `json:"createdAt"`
	}
)

func (s Sharing) Allows(c Category) bool {
	switch c {
	case CategoryTrails:
		return s.Trails
	case CategoryCourses:
		return s.Courses
	case CategoryEvents:
		return s.Events
	case CategoryDevotionals:
		return s.Devotionals
	}
	return false
}

func (o Organization) IsRoot() bool { return o.ParentID == "" }
