package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core/student"
)

type classApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := classApi{svc: svc, validate: validate}

	cg := g.Group("/classes")
	cg.POST("/renumber", api.renumber)
	cg.POST("/preview", api.preview)
	cg.POST("/commit", api.commit)
	cg.POST("/single", api.assignSingle)
	cg.GET("/seating", api.seating)
	cg.POST("/seating", api.saveSeating)
}

func (api *classApi) renumber(ctx echo.Context) error {
	var data student.Renumber
	if err := bindValid(ctx, api.validate, &data, "Renumber"); err != nil {
		return err
	}
	students, err := api.svc.Renumber(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "renumbering class")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *classApi) preview(ctx echo.Context) error {
	var data student.Preview
	if err := bindValid(ctx, api.validate, &data, "Preview"); err != nil {
		return err
	}
	res, err := api.svc.Preview(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "previewing class")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *classApi) commit(ctx echo.Context) error {
	var data student.Commit
	if err := bindValid(ctx, api.validate, &data, "Commit"); err != nil {
		return err
	}
	n, err := api.svc.Commit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "committing class")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *classApi) assignSingle(ctx echo.Context) error {
	var data student.SingleClass
	if err := bindValid(ctx, api.validate, &data, "SingleClass"); err != nil {
		return err
	}
	seats, err := api.svc.AssignSingle(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning single class")
	}
	return ctx.JSON(http.StatusOK, seats)
}

func (api *classApi) seating(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	layout, err := api.svc.GetSeating(ctx.Request().Context(), class)
	if err != nil {
		return errors.Wrap(err, "loading seating")
	}
	if layout == nil {
		layout = json.RawMessage("null")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"preferred_layout": layout})
}

func (api *classApi) saveSeating(ctx echo.Context) error {
	var data student.Seating
	if err := bindValid(ctx, api.validate, &data, "Seating"); err != nil {
		return err
	}
	if err := api.svc.SaveSeating(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving seating")
	}
	return ctx.NoContent(http.StatusNoContent)
}
