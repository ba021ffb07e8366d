package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core/org"
)

type orgApi struct {
	svc *org.Service
}

func registerOrgAPI(g *echo.Group, svc *org.Service) {
	api := orgApi{svc: svc}

	g.GET("/events", api.queryEvents)
	g.POST("/events", api.createEvent)
	g.GET("/devotionals", api.queryDevotionals)
	g.POST("/devotionals", api.createDevotional)
	g.GET("/organizations/:id", api.retrieve)
	g.PUT("/organizations/:id/sharing", api.updateSharing)
}

func (api *orgApi) queryEvents(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	events, err := api.svc.VisibleEvents(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "listing visible events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *orgApi) createEvent(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data org.NewEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	e, err := api.svc.CreateEvent(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *orgApi) queryDevotionals(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	devotionals, err := api.svc.VisibleDevotionals(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "listing visible devotionals")
	}
	return ctx.JSON(http.StatusOK, devotionals)
}

func (api *orgApi) createDevotional(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data org.NewDevotional
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDevotional")
	}
	d, err := api.svc.CreateDevotional(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, d)
}

// retrieve only exposes the caller's own organization.
func (api *orgApi) retrieve(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	if id := ctx.Param("id"); id != caller.OrganizationID {
		return org.ErrNotFound
	}
	o, err := api.svc.Get(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) updateSharing(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data org.UpdateSharing
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSharing")
	}
	o, err := api.svc.UpdateSharing(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}
