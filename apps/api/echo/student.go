package echoapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/services/export"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}
	admin := adminMiddleware()

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/filter", api.filter)
	sg.GET("/search", api.search)
	sg.GET("/grades", api.grades)
	sg.GET("/classes/:grade", api.classes)
	sg.GET("/by-class", api.byClass)
	sg.GET("/export", api.export)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy, admin)
	sg.POST("/:id/suspend", api.suspend)
	sg.POST("/:id/resume", api.resume)
	sg.POST("/:id/exit", api.exit, admin)
	sg.POST("/:id/course", api.changeCourse, admin)

	g.GET("/exits", api.exits)

	gg := g.Group("/graduates")
	gg.GET("", api.graduates)
	gg.GET("/search", api.searchGraduates)
	gg.GET("/:id", api.retrieveGraduate)

	pg := g.Group("/promotion", admin)
	pg.POST("/promote", api.promote)
	pg.POST("/graduate-sep", api.graduateInSeptember)
	pg.POST("/demote", api.demote)
	pg.POST("/restore", api.restore)
}

type countResponse struct {
	Count int `json:"count"`
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryAll(ctx.Request().Context(), ctx.QueryParam("grade"))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) filter(ctx echo.Context) error {
	var qf student.QueryFilter
	if err := bindValid(ctx, api.validate, &qf, "QueryFilter"); err != nil {
		return err
	}
	students, err := api.svc.Filter(ctx.Request().Context(), qf)
	if err != nil {
		return errors.Wrap(err, "filtering students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) search(ctx echo.Context) error {
	students, err := api.svc.Search(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) grades(ctx echo.Context) error {
	grades, err := api.svc.Grades(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *studentApi) classes(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context(), ctx.Param("grade"))
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *studentApi) byClass(ctx echo.Context) error {
	class, err := classParam(ctx, api.validate)
	if err != nil {
		return err
	}
	students, err := api.svc.ByClass(ctx.Request().Context(), class)
	if err != nil {
		return errors.Wrap(err, "listing class students")
	}
	return ctx.JSON(http.StatusOK, students)
}

// export sends the class lists as an XLSX workbook, one sheet per class.
func (api *studentApi) export(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	classes, err := api.svc.ClassList(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	sheets := make([]export.ClassSheet, 0, len(classes))
	for _, class := range classes {
		students, err := api.svc.ByClass(reqCtx, class)
		if err != nil {
			return errors.Wrapf(err, "listing students of %s", class)
		}
		sheets = append(sheets, export.ClassSheet{Class: class, Students: students})
	}

	var buf bytes.Buffer
	if err := export.ClassList(&buf, sheets); err != nil {
		return errors.Wrap(err, "exporting class lists")
	}
	return attachment(ctx, "class_list.xlsx", buf.Bytes())
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bindValid(ctx, api.validate, &data, "NewStudent"); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := bindValid(ctx, api.validate, &data, "UpdateStudent"); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) suspend(ctx echo.Context) error {
	var data student.Suspend
	if err := bindValid(ctx, api.validate, &data, "Suspend"); err != nil {
		return err
	}
	s, err := api.svc.Suspend(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "suspending student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) resume(ctx echo.Context) error {
	var data student.Resume
	if err := bindValid(ctx, api.validate, &data, "Resume"); err != nil {
		return err
	}
	s, err := api.svc.Resume(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "resuming student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) exit(ctx echo.Context) error {
	var data student.Exit
	if err := bindValid(ctx, api.validate, &data, "Exit"); err != nil {
		return err
	}
	event, err := api.svc.Exit(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording exit")
	}
	return ctx.JSON(http.StatusOK, event)
}

func (api *studentApi) changeCourse(ctx echo.Context) error {
	var data student.CourseChange
	if err := bindValid(ctx, api.validate, &data, "CourseChange"); err != nil {
		return err
	}
	res, err := api.svc.ChangeCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "changing course")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) exits(ctx echo.Context) error {
	list, err := api.svc.ExitList(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing exits")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *studentApi) graduates(ctx echo.Context) error {
	var year int
	if val := ctx.QueryParam("year"); val != "" {
		var err error
		if year, err = strconv.Atoi(val); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "year", Error: "year must be a number"})
		}
	}
	grads, err := api.svc.Graduates(ctx.Request().Context(), year)
	if err != nil {
		return errors.Wrap(err, "listing graduates")
	}
	return ctx.JSON(http.StatusOK, grads)
}

func (api *studentApi) searchGraduates(ctx echo.Context) error {
	grads, err := api.svc.SearchGraduates(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching graduates")
	}
	return ctx.JSON(http.StatusOK, grads)
}

func (api *studentApi) retrieveGraduate(ctx echo.Context) error {
	g, err := api.svc.GetGraduate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding graduate")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *studentApi) promote(ctx echo.Context) error {
	var data student.Promotion
	if err := bindValid(ctx, api.validate, &data, "Promotion"); err != nil {
		return err
	}
	res, err := api.svc.Promote(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "promoting students")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) graduateInSeptember(ctx echo.Context) error {
	var data student.Promotion
	if err := bindValid(ctx, api.validate, &data, "Promotion"); err != nil {
		return err
	}
	n, err := api.svc.GraduateInSeptember(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "graduating students")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *studentApi) demote(ctx echo.Context) error {
	var data ids
	if err := bindValid(ctx, api.validate, &data, "ids"); err != nil {
		return err
	}
	n, err := api.svc.Demote(ctx.Request().Context(), data.IDs)
	if err != nil {
		return errors.Wrap(err, "demoting students")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *studentApi) restore(ctx echo.Context) error {
	var data ids
	if err := bindValid(ctx, api.validate, &data, "ids"); err != nil {
		return err
	}
	n, err := api.svc.Restore(ctx.Request().Context(), data.IDs)
	if err != nil {
		return errors.Wrap(err, "restoring graduates")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

// attachment sends an XLSX workbook as a download named filename.
func attachment(ctx echo.Context, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, export.ContentType, data)
}
