package echoapi

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/user"
)

const (
	tokenContextKey = "userToken"
	userContextKey  = "user"
	tokenAudience   = "Gakuseki"
)

var errInvalidToken = errors.New("invalid token")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsTeacher    bool     `json:"is_teacher,omitempty"`
	IsAdmin      bool     `json:"is_admin,omitempty"`
	TeacherID    *int     `json:"teacher_id,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// Auth issues and checks the HS256 tokens of the API.
type Auth struct {
	appName           string
	signingKey        []byte
	expiration        time.Duration
	refreshExpiration time.Duration
	nowFunc           func() time.Time
}

func NewAuth(conf *core.Config) *Auth {
	return &Auth{
		appName:           conf.AppName,
		signingKey:        []byte(conf.SecretKey),
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
		nowFunc:           time.Now,
	}
}

// UserClaims returns the claims of usr. origIat keeps the first issue time across refreshes.
func (a *Auth) UserClaims(usr user.User, origIat ...int64) *Claims {
	now := a.nowFunc()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.appName,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		IsTeacher:    usr.IsTeacher(),
		IsAdmin:      usr.IsAdmin(),
		TeacherID:    usr.TeacherID,
		Roles:        usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Auth) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *Auth) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, errors.Errorf("unexpected signing method %s", token.Method.Alg())
	}
	return a.signingKey, nil
}

func (a *Auth) parseToken(auth string, _ echo.Context) (interface{}, error) {
	token, err := jwt.ParseWithClaims(auth, new(Claims), a.keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	claims := token.Claims.(*Claims)
	if !claims.VerifyAudience(tokenAudience, true) {
		return nil, errInvalidToken
	}
	return token, nil
}

// Middleware authenticates the request bearer token and stores it in the context.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		ContextKey:     tokenContextKey,
		ParseTokenFunc: a.parseToken,
	})
}

// authenticate checks the credentials and returns the claims of the user, recording the login.
func (a *Auth) authenticate(ctx context.Context, uname, pwd string, svc *user.Service) (*Claims, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.UserClaims(usr), nil
}

func (a *Auth) refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshExpiration)
	if a.nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.UserClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(userContextKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(userContextKey, usr)
	return usr, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		for _, role := range roles {
			for _, r := range claims.Roles {
				if role == r {
					return true
				}
			}
		}
	}
	return false
}
