package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/user"
)

var (
	errUsrNotFoundInCtx  = errors.New("user object not found in echo.Context")
	errNoPermsToSetRoles = "not enough rights to set these roles"
)

type userApi struct {
	auth     *Auth
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, svc *user.Service, validate *validator.Validate) {
	api := userApi{auth: auth, svc: svc, validate: validate}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt, activeUserMiddleware(svc))
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("", api.query, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own max role
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindValid(ctx, api.validate, &data, "LoginRequest"); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// bindQueryFilter reads `search`, `role` (repeatable), `is_active`, `created_from` and `created_to` (RFC 3339).
func bindQueryFilter(ctx echo.Context) (*user.QueryFilter, error) {
	filter := &user.QueryFilter{Search: ctx.QueryParam("search")}
	params := ctx.QueryParams()
	if roles, ok := params["role"]; ok {
		filter.Roles = roles
	}
	if val := ctx.QueryParam("is_active"); val != "" {
		active, err := strconv.ParseBool(val)
		if err != nil {
			return nil, err
		}
		filter.IsActive = &active
	}
	for param, dst := range map[string]*time.Time{"created_from": &filter.CreatedFrom, "created_to": &filter.CreatedTo} {
		if val := ctx.QueryParam(param); val != "" {
			t, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return nil, err
			}
			*dst = t
		}
	}
	filter.Clean()
	return filter, nil
}

func (api *userApi) query(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		// `IsActive`, `Roles` and `TeacherID` can only be changed by admin
		// `Username` and `Email` can only be changed by admin for now
		if data.IsActive != nil || data.Roles != nil || data.TeacherID != nil || data.Username != "" || data.Email != "" {
			return errHttpForbidden
		}
	}

	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own max role
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID || user.MaxRolePriority(usr.Roles) > user.MaxRolePriority(ctxUsr.Roles) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	ids := ctx.QueryParams()["id"]
	if len(ids) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	for _, id := range ids {
		if id == ctxUsr.ID {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
