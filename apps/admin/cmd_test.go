package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/core/user"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
	"github.com/gakuseki/gakuseki/tests"
)

const testPwd = "Kz8#rmQp2v"

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := testutil.Config()
	store := inmemdb.Open()
	out := new(bytes.Buffer)
	return &commandLine{
		conf:       conf,
		logger:     testutil.Logger(conf),
		usrSvc:     user.NewService(store),
		studentSvc: student.NewService(store, teacher.NewService(store), attendance.NewService(store)),
		out:        out,
	}, out
}

// mockPasswords makes the password prompts answer pwds, one per prompt.
func mockPasswords(pwds ...string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwds       []string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(tt.pwds...)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			case check != nil:
				check(t, tt)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	openDBFunc = func(conf *core.Config) (*sqlx.DB, error) {
		return sqlx.Open("postgres", "postgres://localhost/gakuseki_test?sslmode=disable")
	}
	migrateFunc = func(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	t.Run("file storage", func(t *testing.T) {
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, errNotPostgres, err)
	})

	cli.conf.Storage.Driver = core.StoragePostgres
	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "seating", "sql"}},
	}, nil)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	usr := testutil.CreateUser(t, cli.usrSvc, "田中", "tanaka", "tanaka@school.jp", testPwd, []string{user.RoleTeacher}, true)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol" for "admin"`},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "tanaka"}, wantErr: errEmptyPwd},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, pwds: []string{"Nw7!pass-Word"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", "TANAKA"}, pwds: []string{"Nw7!pass-Word"}},
		{name: "reset with email", args: []string{"resetpassword", "--username", usr.Email}, pwds: []string{"Ot8?other-Word"}},
	}, func(t *testing.T, tt cliTest) {
		refreshed, err := cli.usrSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword(tt.pwds[0]))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no identifier", args: []string{"adduser", "--name", "校長"}, wantErr: errMissingIdent},
		{name: "password mismatch", args: []string{"adduser", "--username", "kocho"}, pwds: []string{testPwd, "other"}, wantErr: errPwdMismatch},
		{name: "weak password", args: []string{"adduser", "--username", "kocho"}, pwds: []string{"12345678", "12345678"},
			wantErrStr: "password cannot be entirely numeric"},
		{name: "create admin", args: []string{"adduser", "--name", "校長", "--username", "Kocho", "--admin"}, pwds: []string{testPwd, testPwd}},
	}, nil)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(context.Background(), "kocho")
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleAdminOwner}, usr.Roles)
	assert.True(t, usr.IsActive)
	assert.Contains(t, out.String(), "user "+usr.ID+" saved")

	// same username: updated in place
	mockPasswords("Nw7!pass-Word", "Nw7!pass-Word")
	require.NoError(t, cli.run([]string{"admin", "adduser", "--username", "kocho", "--email", "kocho@school.jp", "--teacher-id", "4"}))
	updated, err := cli.usrSvc.GetByUsernameOrEmail(context.Background(), "kocho@school.jp")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, updated.ID)
	assert.Equal(t, "校長", updated.Name)
	assert.Equal(t, []string{user.RoleTeacher}, updated.Roles)
	require.NotNil(t, updated.TeacherID)
	assert.Equal(t, 4, *updated.TeacherID)
	assert.NoError(t, updated.CheckPassword("Nw7!pass-Word"))
}

func Test_commandLine_promote(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"山田", "佐藤", "鈴木"} {
		s, err := cli.studentSvc.Create(ctx, student.NewStudent{
			Name: name, Kana: name, Year: "2024", Course: student.CourseFull, Grade: "1", ClassName: "1組",
		})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	runCLITests(t, cli, []cliTest{
		{name: "no grade", args: []string{"promote"}, wantErr: errHelp},
		{name: "promote", args: []string{"promote", "--grade", "1", "--school-year", "2024", "--ids", ids[0] + "," + ids[1]}},
	}, nil)
	assert.Contains(t, out.String(), "promoted: 2, stayed: 1, graduated: 0, suspended: 0")

	s, err := cli.studentSvc.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "2", s.Grade)
	require.Len(t, s.History, 1)
	assert.Equal(t, student.OutcomePromoted, s.History[0].Outcome)
}
