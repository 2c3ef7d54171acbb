// Package testutil holds the fixtures shared by the API and CLI tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/user"
	"github.com/gakuseki/gakuseki/services/logger"
)

// Config returns the configuration of the test runs.
func Config() *core.Config {
	return &core.Config{
		AppName:   "Gakuseki",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "t3st-k3y",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			DisableReqLogs:            true,
		},
		Storage: core.StorageConfig{Driver: core.StorageFile},
	}
}

// Validator returns a validator with every custom validation of the app registered.
func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// Logger returns a logger writing nowhere.
func Logger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func CreateUser(
	t *testing.T,
	svc *user.Service,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()
	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		Roles:    roles,
		IsActive: isActive,
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := svc.Save(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
