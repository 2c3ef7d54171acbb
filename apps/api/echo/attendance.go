package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance")
	ag.GET("/daily", api.day)
	ag.POST("/daily", api.saveDay)
	ag.GET("/periods", api.periods)
	ag.POST("/periods", api.savePeriod)
	ag.GET("/stats", api.stats)
	ag.GET("/stats/subject", api.subjectStats)
	ag.GET("/stats/special", api.specialStats)
	ag.GET("/student/:id", api.studentYear)
}

func (api *attendanceApi) day(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	students, err := api.svc.GetDay(ctx.Request().Context(), class, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "loading daily attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students})
}

func (api *attendanceApi) saveDay(ctx echo.Context) error {
	var data attendance.SaveDay
	if err := bindValid(ctx, api.validate, &data, "SaveDay"); err != nil {
		return err
	}
	if err := api.svc.SaveDay(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving daily attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) periods(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	periods, err := api.svc.GetPeriods(ctx.Request().Context(), class, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "loading period attendance")
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *attendanceApi) savePeriod(ctx echo.Context) error {
	var data attendance.SavePeriod
	if err := bindValid(ctx, api.validate, &data, "SavePeriod"); err != nil {
		return err
	}
	if err := api.svc.SavePeriod(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving period attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	sy, err := schoolYear(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), class, sy)
	if err != nil {
		return errors.Wrap(err, "computing attendance stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// subjectStats aggregates the periods of the `subject` query param (id or name), repeatable.
func (api *attendanceApi) subjectStats(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	sy, err := schoolYear(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.SubjectStats(ctx.Request().Context(), class, sy, ctx.QueryParams()["subject"]...)
	if err != nil {
		return errors.Wrap(err, "computing subject attendance stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *attendanceApi) specialStats(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	sy, err := schoolYear(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.SpecialStats(ctx.Request().Context(), class, sy)
	if err != nil {
		return errors.Wrap(err, "computing special attendance stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *attendanceApi) studentYear(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	sy, err := schoolYear(ctx)
	if err != nil {
		return err
	}
	counters, err := api.svc.StudentYear(ctx.Request().Context(), class, sy, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing student attendance")
	}
	return ctx.JSON(http.StatusOK, counters)
}
