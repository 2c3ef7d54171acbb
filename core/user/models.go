package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gakuseki/gakuseki/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,
	}

	Roles = []Role{
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 4)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is a staff account. TeacherID links a teacher account to its teacher record.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	Roles        []string   `json:"roles"`
	TeacherID    *int       `json:"teacher_id"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login"` // UTC
}

// account is the stored form of a User.
type account struct {
	User
	Hash []byte `json:"password_hash"`
}

func (a account) user() User {
	usr := a.User
	usr.PasswordHash = a.Hash
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	return usr
}

func newAccount(usr User) account {
	return account{User: usr, Hash: usr.PasswordHash}
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	TeacherID       *int     `json:"teacher_id" validate:"omitempty,min=1"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	TeacherID       *int     `json:"teacher_id" validate:"omitempty,min=1"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// Validate fills the blank fields from origUsr before validating.
func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Roles == nil {
		uu.Roles = origUsr.Roles
	}
	if uu.TeacherID == nil {
		uu.TeacherID = origUsr.TeacherID
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}

// match applies every set criterion of qf (AND). Search matches name, username or email, case-insensitively.
func (qf *QueryFilter) match(usr User) bool {
	if qf.Search != "" {
		s := qf.Search
		if !strings.Contains(strings.ToLower(usr.Name), s) &&
			!strings.Contains(usr.Username, s) &&
			!strings.Contains(usr.Email, s) {
			return false
		}
	}
	if qf.Roles != nil && !hasAnyRole(usr.Roles, qf.Roles) {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if !qf.CreatedFrom.IsZero() && usr.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	if !qf.CreatedTo.IsZero() && usr.CreatedAt.After(qf.CreatedTo) {
		return false
	}
	return true
}

func hasAnyRole(roles, wanted []string) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}
