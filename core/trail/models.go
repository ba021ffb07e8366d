package trail

import (
	"sort"
	"time"
)

type (
	Trail struct {
		ID             string    `json:"id"`
		OrganizationID string    `json:"organizationId"`
		Title          string    `json:"title"`
		Description    string    `json:"description,omitempty"`
		Active         bool      `json:"active"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}

	Stage struct {
		ID        string    `json:"id"`
		TrailID   string    `json:"trailId"`
		Title     string    `json:"title"`
		Order     int       `json:"order"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Step struct {
		ID        string    `json:"id"`
		StageID   string    `json:"stageId"`
		TrailID   string    `json:"trailId"`
		Title     string    `json:"title"`
		Order     int       `json:"order"`
		CreatedAt time.Time `json:"createdAt"`
	}

	StepCompletion struct {
		StepID      string    `json:"stepId"`
		TrailID     string    `json:"trailId"`
		MemberID    string    `json:"memberId"`
		CompletedAt time.Time `json:"completedAt"`
	}

	StageProgress struct {
		StageID        string `json:"stageId"`
		Title          string `json:"title"`
		CompletedSteps int    `json:"completedSteps"`
		TotalSteps     int    `json:"totalSteps"`
		Complete       bool   `json:"complete"`
	}

	Progress struct {
		TrailID           string          `json:"trailId,omitempty"`
		CompletedSteps    int             `json:"completedSteps"`
		TotalSteps        int             `json:"totalSteps"`
		Percentage        float64         `json:"percentage"`
		CurrentStageIndex int             `json:"currentStageIndex"`
		Stages            []StageProgress `json:"stages"`
	}

	Filter struct {
		OrganizationID string
		Active         *bool
	}
)

// SortStages orders stages by Order, ties broken by creation time.
func SortStages(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		a, b := stages[i], stages[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func SortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		a, b := steps[i], steps[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
