package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
)

type (
	trailApi struct {
		svc    *trail.Service
		orgSvc *org.Service
	}

	trailDetail struct {
		trail.Trail
		Stages []trail.Stage `json:"stages"`
		Steps  []trail.Step  `json:"steps"`
	}
)

func registerTrailAPI(g *echo.Group, svc *trail.Service, orgSvc *org.Service) {
	api := trailApi{svc: svc, orgSvc: orgSvc}

	tg := g.Group("/trails")
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/active/progress", api.activeProgress)
	tg.GET("/:id", api.retrieve)
	tg.GET("/:id/progress", api.progress)
	tg.POST("/:id/activate", api.activate)
	tg.POST("/:id/stages", api.addStage)

	g.POST("/stages/:id/steps", api.addStep)
	g.POST("/steps/:id/completion", api.completeStep)
	g.DELETE("/steps/:id/completion", api.uncompleteStep)
}

// visibleTrail returns the trail if the caller's organization owns or inherits it.
func (api *trailApi) visibleTrail(ctx echo.Context, caller core.Caller, id string) (trail.Trail, error) {
	trails, err := api.orgSvc.VisibleTrails(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return trail.Trail{}, errors.Wrap(err, "listing visible trails")
	}
	for _, t := range trails {
		if t.ID == id {
			return t, nil
		}
	}
	return trail.Trail{}, trail.ErrNotFound
}

func (api *trailApi) query(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	trails, err := api.orgSvc.VisibleTrails(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "listing visible trails")
	}
	return ctx.JSON(http.StatusOK, trails)
}

func (api *trailApi) create(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data trail.NewTrail
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTrail")
	}
	t, err := api.svc.CreateTrail(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *trailApi) retrieve(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	t, err := api.visibleTrail(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	stages, steps, err := api.svc.Structure(ctx.Request().Context(), t.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trailDetail{Trail: t, Stages: stages, Steps: steps})
}

func (api *trailApi) progress(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	memberID := bindMember(ctx, caller)
	if !caller.ActsFor(memberID) {
		return core.ErrPermissionDenied
	}
	t, err := api.visibleTrail(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	prog, err := api.svc.Progress(ctx.Request().Context(), t.ID, memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *trailApi) activeProgress(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	memberID := bindMember(ctx, caller)
	if !caller.ActsFor(memberID) {
		return core.ErrPermissionDenied
	}
	prog, err := api.svc.ActiveProgress(ctx.Request().Context(), caller.OrganizationID, memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *trailApi) activate(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.ActivateTrail(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *trailApi) addStage(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data trail.NewStage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStage")
	}
	s, err := api.svc.AddStage(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *trailApi) addStep(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data trail.NewStep
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStep")
	}
	s, err := api.svc.AddStep(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *trailApi) completeStep(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	comp, err := api.svc.CompleteStep(ctx.Request().Context(), caller, ctx.Param("id"), bindMember(ctx, caller))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comp)
}

func (api *trailApi) uncompleteStep(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.UncompleteStep(ctx.Request().Context(), caller, ctx.Param("id"), bindMember(ctx, caller)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
