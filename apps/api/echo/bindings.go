package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

var (
	orderingParam   = "ordering"
	schoolYearParam = "school_year"

	nowFunc = time.Now
)

type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.Ordering{Field: field, Ascending: !descending})
		}
	}
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

// bindValid binds the request into data and validates it.
func bindValid(ctx echo.Context, validate *validator.Validate, data validatable, name string) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %s", name)
	}
	return data.Validate(validate)
}

// schoolYear reads the `school_year` query param, defaulting to the current school year.
func schoolYear(ctx echo.Context) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(schoolYearParam))
	if val == "" {
		return core.SchoolYear(nowFunc()), nil
	}
	sy, err := strconv.Atoi(val)
	if err != nil || sy < 2000 {
		return 0, core.NewValidationError(errors.New("invalid school year"), core.FieldError{Field: schoolYearParam, Error: "school year must be a year, e.g. 2025"})
	}
	return sy, nil
}

// classParam reads the class of the request from the `course`, `grade` and `class_name` query params.
func classParam(ctx echo.Context, validate *validator.Validate) (core.ClassRef, error) {
	class := core.NewClassRef(ctx.QueryParam("course"), ctx.QueryParam("grade"), ctx.QueryParam("class_name"))
	if err := validate.Struct(class); err != nil {
		return core.ClassRef{}, err
	}
	return class, nil
}

// ids is the body of the workflows acting on a list of students.
type ids struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (r *ids) Validate(validate *validator.Validate) error {
	cleaned := make([]string, 0, len(r.IDs))
	for _, id := range r.IDs {
		if id = core.CleanString(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	r.IDs = cleaned
	return validate.Struct(r)
}
