package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/user"
	"github.com/gakuseki/gakuseki/storage/database"
)

// mockable
var (
	readPasswordFunc = term.ReadPassword
	openDBFunc       = database.Open
	migrateFunc      = database.Migrate
)

var (
	errHelp         = errors.New("help provided")
	errEmptyPwd     = errors.New("password cannot be empty")
	errPwdMismatch  = errors.New("passwords do not match")
	errNotPostgres  = errors.New("migrations need the postgres storage driver")
	errMissingIdent = errors.New("one of --username or --email is required")
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	usrSvc     *user.Service
	studentSvc *student.Service
	out        io.Writer
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out != nil {
		return cli.out
	}
	return os.Stdout
}

// run executes the command of args (program name included).
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root.ExecuteContext(context.Background())
}

// helpOnly prints the usage of cmd and ends the command with errHelp.
func helpOnly(cmd *cobra.Command) error {
	_ = cmd.Help()
	return errHelp
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Gakuseki administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpOnly(cmd)
		},
	}
	root.SetOut(cli.stdout())
	root.AddCommand(cli.addUserCmd(), cli.resetPasswordCmd(), cli.migrateCmd(), cli.promoteCmd())
	return root
}

// promptPassword reads a password (twice when confirm) without echoing it.
func (cli *commandLine) promptPassword(confirm bool) (string, error) {
	fmt.Fprint(cli.stdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.stdout())
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPwd
	}
	if confirm {
		fmt.Fprint(cli.stdout(), "Confirm password:")
		again, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.stdout())
		if err != nil {
			return "", err
		}
		if string(again) != string(pwd) {
			return "", errPwdMismatch
		}
	}
	return string(pwd), nil
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		name, uname, email string
		isAdmin            bool
		teacherID          int
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the user with the same username or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			uname = core.CleanString(uname, true /* lower */)
			email = core.CleanString(email, true /* lower */)
			if uname == "" && email == "" {
				_ = cmd.Usage()
				return errMissingIdent
			}
			pwd, err := cli.promptPassword(true)
			if err != nil {
				return err
			}
			if err := user.CheckPasswordPolicy(pwd, name, uname, email); err != nil {
				return err
			}

			usr := user.User{Name: core.CleanString(name), Username: uname, Email: email, IsActive: true, Roles: []string{user.RoleTeacher}}
			if isAdmin {
				usr.Roles = []string{user.RoleAdminOwner}
			}
			if teacherID > 0 {
				usr.TeacherID = &teacherID
			}
			if err := usr.SetPassword(pwd); err != nil {
				return err
			}
			usr, err = cli.usrSvc.Save(cmd.Context(), usr)
			if err != nil {
				return err
			}
			cli.logger.Info("user saved", usr)
			fmt.Fprintf(cli.stdout(), "user %s saved (%s)\n", usr.ID, strings.Join(usr.Roles, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&uname, "username", "", "login username")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant the owner role instead of the teacher role")
	cmd.Flags().IntVar(&teacherID, "teacher-id", 0, "teacher record of the account")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password, prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			if core.CleanString(uname) == "" {
				return helpOnly(cmd)
			}
			pwd, err := cli.promptPassword(false)
			if err != nil {
				return err
			}
			return cli.usrSvc.ResetPassword(cmd.Context(), uname, pwd)
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username or email")
	return cmd
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, redo...) against the postgres database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return helpOnly(cmd)
			}
			if cli.conf.Storage.Driver != core.StoragePostgres {
				return errNotPostgres
			}
			db, err := openDBFunc(cli.conf)
			if err != nil {
				return err
			}
			defer func(db *sqlx.DB) { _ = db.Close() }(db)
			return migrateFunc(cmd.Context(), db, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) promoteCmd() *cobra.Command {
	var p student.Promotion
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Close the school year of a grade: promote the listed students, graduate the 3rd grade",
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.Grade == "" {
				return helpOnly(cmd)
			}
			validate, _ := newValidator()
			if err := p.Validate(validate); err != nil {
				return err
			}
			res, err := cli.studentSvc.Promote(cmd.Context(), p)
			if err != nil {
				return err
			}
			cli.logger.Info("school year closed", map[string]interface{}{"grade": p.Grade, "school_year": p.SchoolYear})
			fmt.Fprintf(cli.stdout(), "promoted: %d, stayed: %d, graduated: %d, suspended: %d\n",
				res.Promoted, res.Stayed, res.Graduated, res.Suspended)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Grade, "grade", "", "grade to close (1, 2 or 3)")
	cmd.Flags().StringSliceVar(&p.IDs, "ids", nil, "ids of the students moving up")
	cmd.Flags().IntVar(&p.SchoolYear, "school-year", 0, "school year being closed (default: current)")
	return cmd
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}
