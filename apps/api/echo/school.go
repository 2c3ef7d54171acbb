package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/subject"
	"github.com/gakuseki/gakuseki/core/teacher"
)

type teacherApi struct {
	svc      *teacher.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, svc *teacher.Service, validate *validator.Validate) {
	api := teacherApi{svc: svc, validate: validate}
	admin := adminMiddleware()

	tg := g.Group("/teachers")
	tg.GET("", api.query)
	tg.POST("", api.create, admin)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update, admin)
	tg.DELETE("/:id", api.destroy, admin)
}

func teacherID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, teacher.ErrNotFound
	}
	return id, nil
}

func (api *teacherApi) query(ctx echo.Context) error {
	teachers, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	id, err := teacherID(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.Input
	if err := bindValid(ctx, api.validate, &data, "teacher.Input"); err != nil {
		return err
	}
	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	id, err := teacherID(ctx)
	if err != nil {
		return err
	}
	var data teacher.Input
	if err := bindValid(ctx, api.validate, &data, "teacher.Input"); err != nil {
		return err
	}
	t, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	id, err := teacherID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type subjectApi struct {
	svc      *subject.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, svc *subject.Service, validate *validator.Validate) {
	api := subjectApi{svc: svc, validate: validate}
	admin := adminMiddleware()

	sg := g.Group("/subjects")
	sg.GET("", api.query)
	sg.POST("", api.create, admin)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, admin)
	sg.DELETE("/:id", api.destroy, admin)
}

// query lists every subject, or the subjects of one `type` (required | optional).
func (api *subjectApi) query(ctx echo.Context) error {
	var (
		subjects []subject.Subject
		err      error
	)
	switch typ := subject.Type(core.CleanString(ctx.QueryParam("type"))); typ {
	case "":
		subjects, err = api.svc.QueryAll(ctx.Request().Context())
	case subject.TypeRequired, subject.TypeOptional:
		subjects, err = api.svc.QueryByType(ctx.Request().Context(), typ)
	default:
		return core.NewValidationError(errors.New("invalid subject type"), core.FieldError{Field: "type", Error: "type must be one of required, optional"})
	}
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.Input
	if err := bindValid(ctx, api.validate, &data, "subject.Input"); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *subjectApi) update(ctx echo.Context) error {
	var data subject.Input
	if err := bindValid(ctx, api.validate, &data, "subject.Input"); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}
