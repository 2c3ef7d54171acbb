package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func Test_passwordPolicy(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc 1234!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcd12345", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcd1234!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Tanaka_99!", attrs: []string{"田中", "tanaka_99"}, want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "common ignores case", pwd: "Welcome1!", want: pwdNoCommonTag},
		{name: "ok", pwd: "Kz8#rmQp2v", attrs: []string{"田中", "tanaka", "tanaka@school.jp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicy(tt.pwd, tt.attrs...); got != tt.want {
				t.Errorf("passwordPolicy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_allRolesValidation(t *testing.T) {
	validate := newValidator()

	type roles struct {
		Roles []string `validate:"allroles"`
	}
	assert.NoError(t, validate.Struct(roles{Roles: []string{RoleTeacher, RoleAdminOwner}}))
	assert.NoError(t, validate.Struct(roles{Roles: []string{}}))
	assert.Error(t, validate.Struct(roles{Roles: []string{RoleTeacher, "student:"}}))
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator()
	svc := NewService(inmemdb.Open())

	tests := []struct {
		name       string
		nu         NewUser
		wantFields []string
	}{
		{
			name: "ok",
			nu:   NewUser{Name: "田中", Username: " Tanaka ", Password: "Kz8#rmQp2v", PasswordConfirm: "Kz8#rmQp2v", Roles: []string{RoleTeacher}},
		},
		{
			name:       "no username nor email",
			nu:         NewUser{Name: "田中", Password: "Kz8#rmQp2v", PasswordConfirm: "Kz8#rmQp2v"},
			wantFields: []string{"username", "email"},
		},
		{
			name:       "passwords differ",
			nu:         NewUser{Name: "田中", Email: "tanaka@school.jp", Password: "Kz8#rmQp2v", PasswordConfirm: "Kz8#rmQp2w"},
			wantFields: []string{"password_confirm"},
		},
		{
			name:       "weak password",
			nu:         NewUser{Name: "田中", Email: "tanaka@school.jp", Password: "password", PasswordConfirm: "password"},
			wantFields: []string{"password"},
		},
		{
			name:       "unknown role",
			nu:         NewUser{Name: "田中", Email: "tanaka@school.jp", Password: "Kz8#rmQp2v", PasswordConfirm: "Kz8#rmQp2v", Roles: []string{"root"}},
			wantFields: []string{"roles"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate, svc)
			if tt.wantFields == nil {
				require.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "Validate() error = %v, want validator.ValidationErrors", err)
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	assert.NoError(t, CheckPasswordPolicy("Kz8#rmQp2v", "tanaka"))
	assert.EqualError(t, CheckPasswordPolicy("short"), pwdMinLenText)
	assert.EqualError(t, CheckPasswordPolicy("Tanaka#2025", "tanaka2025"), pwdAttrSimText)
}
