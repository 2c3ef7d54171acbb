package user

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

// Key is the store key of the user accounts.
const Key = "users"

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")

	nowFunc = time.Now
)

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) load(ctx context.Context) ([]account, error) {
	accounts := make([]account, 0)
	if err := core.Load(ctx, svc.store, Key, &accounts); err != nil {
		return nil, errors.Wrap(err, "loading users")
	}
	return accounts, nil
}

func (svc *Service) update(ctx context.Context, fn func(accounts *[]account) error) error {
	accounts := make([]account, 0)
	return core.Update(ctx, svc.store, Key, &accounts, func() error {
		return fn(&accounts)
	})
}

func find(accounts []account, match func(User) bool) int {
	for i, a := range accounts {
		if match(a.User) {
			return i
		}
	}
	return -1
}

func byID(id string) func(User) bool {
	return func(u User) bool { return u.ID == id }
}

func isExcluded(usr User, excluded []User) bool {
	for _, ex := range excluded {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}

// CheckUniqueness fails with a ValidationError when uname or email is taken by a user other than exclUsers.
func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	accounts, err := svc.load(context.Background())
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if isExcluded(a.User, exclUsers) {
			continue
		}
		if uname != "" && a.Username == uname {
			return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		}
		if email != "" && a.Email == email {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := nowFunc().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		TeacherID: nu.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	err := svc.update(ctx, func(accounts *[]account) error {
		*accounts = append(*accounts, newAccount(usr))
		return nil
	})
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Save creates usr, or replaces the user of the same username or email. Used by the admin CLI.
func (svc *Service) Save(ctx context.Context, usr User) (User, error) {
	now := nowFunc().UTC()
	err := svc.update(ctx, func(accounts *[]account) error {
		i := find(*accounts, func(u User) bool {
			return (usr.Username != "" && u.Username == usr.Username) || (usr.Email != "" && u.Email == usr.Email)
		})
		if i < 0 {
			usr.ID = uuid.NewString()
			usr.CreatedAt = now
			usr.UpdatedAt = now
			*accounts = append(*accounts, newAccount(usr))
			return nil
		}
		orig := (*accounts)[i].User
		usr.ID, usr.CreatedAt, usr.LastLogin, usr.UpdatedAt = orig.ID, orig.CreatedAt, orig.LastLogin, now
		if usr.Name == "" {
			usr.Name = orig.Name
		}
		(*accounts)[i] = newAccount(usr)
		return nil
	})
	if err != nil {
		return User{}, errors.Wrap(err, "saving user")
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.Query(ctx, nil, nil)
}

// Query lists the users matching filter, newest first unless orderings say otherwise.
// Orderable fields: name, username, email, created_at, last_login.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings []core.Ordering) ([]User, error) {
	accounts, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(accounts))
	for _, a := range accounts {
		if filter == nil || filter.IsEmpty() || filter.match(a.User) {
			users = append(users, a.user())
		}
	}

	if len(orderings) == 0 {
		orderings = []core.Ordering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(users[i], users[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return users, nil
}

func compare(a, b User, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "created_at":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "last_login":
		var at, bt time.Time
		if a.LastLogin != nil {
			at = *a.LastLogin
		}
		if b.LastLogin != nil {
			bt = *b.LastLogin
		}
		return compareTime(at, bt)
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (svc *Service) get(ctx context.Context, match func(User) bool) (User, error) {
	accounts, err := svc.load(ctx)
	if err != nil {
		return User{}, err
	}
	if i := find(accounts, match); i >= 0 {
		return accounts[i].user(), nil
	}
	return User{}, ErrNotFound
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.get(ctx, byID(id))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return User{}, ErrNotFound
	}
	return svc.get(ctx, func(u User) bool { return u.Username == uname || u.Email == uname })
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	var usr User
	err := svc.update(ctx, func(accounts *[]account) error {
		i := find(*accounts, byID(id))
		if i < 0 {
			return ErrNotFound
		}
		usr = (*accounts)[i].user()
		usr.Name = uu.Name
		usr.Username = uu.Username
		usr.Email = uu.Email
		usr.Roles = uu.Roles
		usr.TeacherID = uu.TeacherID
		if uu.IsActive != nil {
			usr.IsActive = *uu.IsActive
		}
		if uu.Password != "" {
			if err := usr.SetPassword(uu.Password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
		}
		usr.UpdatedAt = nowFunc().UTC()
		(*accounts)[i] = newAccount(usr)
		return nil
	})
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	err := svc.update(ctx, func(accounts *[]account) error {
		i := find(*accounts, byID(usr.ID))
		if i < 0 {
			return ErrNotFound
		}
		now := nowFunc().UTC()
		(*accounts)[i].LastLogin = &now
		usr = (*accounts)[i].user()
		return nil
	})
	if err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// ResetPassword replaces the password of the user found by username or email.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	err := svc.update(ctx, func(accounts *[]account) error {
		i := find(*accounts, func(u User) bool { return u.Username == uname || u.Email == uname })
		if uname == "" || i < 0 {
			return ErrNotFound
		}
		usr := (*accounts)[i].user()
		if err := usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		usr.UpdatedAt = nowFunc().UTC()
		(*accounts)[i] = newAccount(usr)
		return nil
	})
	return errors.Wrap(err, "resetting password")
}

// Delete removes the users of ids. Unknown ids are ignored.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	err := svc.update(ctx, func(accounts *[]account) error {
		kept := (*accounts)[:0]
		for _, a := range *accounts {
			if !contains(ids, a.ID) {
				kept = append(kept, a)
			}
		}
		*accounts = kept
		return nil
	})
	return errors.Wrap(err, "deleting users")
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
