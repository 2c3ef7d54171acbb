package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/evaluation"
	"github.com/gakuseki/gakuseki/services/export"
)

type evaluationApi struct {
	svc      *evaluation.Service
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, svc *evaluation.Service, validate *validator.Validate) {
	api := evaluationApi{svc: svc, validate: validate}

	tg := g.Group("/tasks")
	tg.GET("", api.tasks)
	tg.POST("", api.addTask)
	tg.POST("/toggle", api.toggleTask)
	tg.PUT("/label", api.editTaskLabel)
	tg.PUT("/required", api.setRequiredTasks)
	tg.DELETE("", api.deleteTask)

	xg := g.Group("/exams")
	xg.GET("", api.exams)
	xg.POST("/score", api.saveScore)

	eg := g.Group("/evaluation")
	eg.GET("", api.class)
	eg.POST("/confirm-semester", api.confirmSemester)
	eg.POST("/finalize", api.finalize)
	eg.PUT("/manual", api.setManualGrade)
	eg.DELETE("/manual", api.clearManualGrade)
	eg.POST("/save-all", api.saveAll)
	eg.GET("/saved", api.saved)
	eg.GET("/export", api.export)
}

func (api *evaluationApi) tasks(ctx echo.Context) error {
	var q evaluation.TaskQuery
	if err := bindValid(ctx, api.validate, &q, "TaskQuery"); err != nil {
		return err
	}
	tasks, err := api.svc.Tasks(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "loading tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *evaluationApi) addTask(ctx echo.Context) error {
	var data evaluation.NewTask
	if err := bindValid(ctx, api.validate, &data, "NewTask"); err != nil {
		return err
	}
	tasks, err := api.svc.AddTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding task")
	}
	return ctx.JSON(http.StatusCreated, tasks)
}

func (api *evaluationApi) toggleTask(ctx echo.Context) error {
	var data evaluation.ToggleTask
	if err := bindValid(ctx, api.validate, &data, "ToggleTask"); err != nil {
		return err
	}
	tasks, err := api.svc.ToggleTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "toggling task")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *evaluationApi) editTaskLabel(ctx echo.Context) error {
	var data evaluation.EditTask
	if err := bindValid(ctx, api.validate, &data, "EditTask"); err != nil {
		return err
	}
	tasks, err := api.svc.EditTaskLabel(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "editing task")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *evaluationApi) setRequiredTasks(ctx echo.Context) error {
	var data evaluation.RequiredTasks
	if err := bindValid(ctx, api.validate, &data, "RequiredTasks"); err != nil {
		return err
	}
	tasks, err := api.svc.SetRequiredTasks(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting required tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *evaluationApi) deleteTask(ctx echo.Context) error {
	var data evaluation.EditTask
	if err := bindValid(ctx, api.validate, &data, "EditTask"); err != nil {
		return err
	}
	tasks, err := api.svc.DeleteTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *evaluationApi) exams(ctx echo.Context) error {
	var q evaluation.ExamQuery
	if err := bindValid(ctx, api.validate, &q, "ExamQuery"); err != nil {
		return err
	}
	book, err := api.svc.Exams(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "loading exams")
	}
	return ctx.JSON(http.StatusOK, book)
}

func (api *evaluationApi) saveScore(ctx echo.Context) error {
	var data evaluation.ExamScore
	if err := bindValid(ctx, api.validate, &data, "ExamScore"); err != nil {
		return err
	}
	if err := api.svc.SaveScore(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving exam score")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *evaluationApi) class(ctx echo.Context) error {
	var q evaluation.Query
	if err := bindValid(ctx, api.validate, &q, "Query"); err != nil {
		return err
	}
	ce, err := api.svc.Class(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "evaluating class")
	}
	return ctx.JSON(http.StatusOK, ce)
}

func (api *evaluationApi) confirmSemester(ctx echo.Context) error {
	var data evaluation.Confirm
	if err := bindValid(ctx, api.validate, &data, "Confirm"); err != nil {
		return err
	}
	n, err := api.svc.ConfirmSemester(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "confirming semester")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *evaluationApi) finalize(ctx echo.Context) error {
	var data evaluation.Query
	if err := bindValid(ctx, api.validate, &data, "Query"); err != nil {
		return err
	}
	n, err := api.svc.Finalize(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "finalizing evaluation")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *evaluationApi) setManualGrade(ctx echo.Context) error {
	var data evaluation.ManualGrade
	if err := bindValid(ctx, api.validate, &data, "ManualGrade"); err != nil {
		return err
	}
	grade, err := api.svc.SetManualGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting manual grade")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"final_grade": grade})
}

func (api *evaluationApi) clearManualGrade(ctx echo.Context) error {
	var data evaluation.StudentRef
	if err := bindValid(ctx, api.validate, &data, "StudentRef"); err != nil {
		return err
	}
	grade, err := api.svc.ClearManualGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "clearing manual grade")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"final_grade": grade})
}

func (api *evaluationApi) saveAll(ctx echo.Context) error {
	var data evaluation.SaveAll
	if err := bindValid(ctx, api.validate, &data, "SaveAll"); err != nil {
		return err
	}
	n, err := api.svc.SaveAll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving evaluations")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

func (api *evaluationApi) saved(ctx echo.Context) error {
	sy, err := schoolYear(ctx)
	if err != nil {
		return err
	}
	grade := core.CleanString(ctx.QueryParam("grade"))
	className := core.CleanString(ctx.QueryParam("class_name"))
	if grade == "" || className == "" {
		return core.NewValidationError(errors.New("missing class"),
			core.FieldError{Field: "grade", Error: "this field is required"},
			core.FieldError{Field: "class_name", Error: "this field is required"},
		)
	}
	saved, err := api.svc.Saved(ctx.Request().Context(), sy, grade, className)
	if err != nil {
		return errors.Wrap(err, "loading saved evaluations")
	}
	return ctx.JSON(http.StatusOK, saved)
}

// export sends the evaluation of a class as an XLSX workbook.
func (api *evaluationApi) export(ctx echo.Context) error {
	var q evaluation.Query
	if err := bindValid(ctx, api.validate, &q, "Query"); err != nil {
		return err
	}
	ce, err := api.svc.Class(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "evaluating class")
	}

	var buf bytes.Buffer
	if err := export.Evaluation(&buf, q.ClassRef, q.SchoolYear, ce); err != nil {
		return errors.Wrap(err, "exporting evaluation")
	}
	filename := fmt.Sprintf("evaluation_%s_%s.xlsx", strconv.Itoa(q.SchoolYear), q.Subject)
	return attachment(ctx, filename, buf.Bytes())
}
