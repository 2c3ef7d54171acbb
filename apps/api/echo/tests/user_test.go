package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/gakuseki/gakuseki/apps/api/echo"
	"github.com/gakuseki/gakuseki/core/user"
	"github.com/gakuseki/gakuseki/tests"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.userSvc, "退職者", "retired", "", testPwd, []string{user.RoleTeacher}, false)

	login := func(uname, pwd string) []byte {
		return marshalObj(t, LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"this field is required","password":"this field is required"}`)},
		{name: "unknown user", body: login("nobody", testPwd), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: login("tanaka", "nope"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated", body: login("retired", testPwd), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"})},
		{name: "ok by username", body: login(" TANAKA ", testPwd), wantCode: http.StatusOK},
		{name: "ok by email", body: login("tanaka@school.jp", testPwd), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/users/login", "", tt.body)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp LoginResponse
			unmarshal(t, rec, &resp)
			require.NotEmpty(t, resp.Token)

			// the token opens the authenticated endpoints
			rec = env.do(http.MethodGet, "/v1/users/"+env.teacher.ID, resp.Token)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	usr, err := env.userSvc.GetByID(context.Background(), env.teacher.ID)
	require.NoError(t, err)
	assert.NotNil(t, usr.LastLogin)
}

func Test_userApi_auth(t *testing.T) {
	env := setup(t)

	runHTTPTests(t, env, []httpTest{
		{name: "no token", method: http.MethodGet, path: "/v1/students", wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken)},
		{name: "bad token", method: http.MethodGet, path: "/v1/students", token: "abc.def.ghi", wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "token refresh", method: http.MethodPost, path: "/v1/users/token-refresh", token: env.token, wantCode: http.StatusOK},
		{name: "roles need admin", method: http.MethodGet, path: "/v1/users/roles", token: env.token, wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"})},
		{name: "roles", method: http.MethodGet, path: "/v1/users/roles", token: env.adminToken, wantCode: http.StatusOK,
			wantData: marshalObj(t, user.Roles)},
	})

	// tokens of deleted accounts are refused
	require.NoError(t, env.userSvc.Delete(context.Background(), env.teacher.ID))
	rec := env.do(http.MethodGet, "/v1/students", env.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_userApi_crud(t *testing.T) {
	env := setup(t)
	other := testutil.CreateUser(t, env.userSvc, "鈴木", "suzuki", "", testPwd, []string{user.RoleTeacher}, true)

	newUser := marshalObj(t, user.NewUser{
		Name: "佐藤", Username: "sato", Password: testPwd, PasswordConfirm: testPwd, Roles: []string{user.RoleTeacher},
	})
	tooPowerful := marshalObj(t, user.NewUser{
		Name: "佐藤", Username: "sato", Password: testPwd, PasswordConfirm: testPwd, Roles: []string{user.RoleAdminOwner},
	})

	runHTTPTests(t, env, []httpTest{
		{name: "teacher cannot create", method: http.MethodPost, path: "/v1/users", token: env.token, body: newUser, wantCode: http.StatusForbidden},
		{name: "role above own", method: http.MethodPost, path: "/v1/users", token: env.adminToken, body: tooPowerful, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roles":"not enough rights to set these roles"}`)},
		{name: "duplicate username", method: http.MethodPost, path: "/v1/users", token: env.adminToken, wantCode: http.StatusBadRequest,
			body:     marshalObj(t, user.NewUser{Name: "x", Username: "tanaka", Password: testPwd, PasswordConfirm: testPwd}),
			wantData: []byte(`{"username":"a user with this username already exists"}`)},
		{name: "create", method: http.MethodPost, path: "/v1/users", token: env.adminToken, body: newUser, wantCode: http.StatusCreated},
		{name: "teacher sees self", method: http.MethodGet, path: "/v1/users/" + env.teacher.ID, token: env.token, wantCode: http.StatusOK,
			wantData: marshalObj(t, env.teacher)},
		{name: "teacher cannot see others", method: http.MethodGet, path: "/v1/users/" + other.ID, token: env.token, wantCode: http.StatusNotFound},
		{name: "teacher cannot change roles", method: http.MethodPut, path: "/v1/users/" + env.teacher.ID, token: env.token,
			body: []byte(`{"roles":["admin:"]}`), wantCode: http.StatusForbidden},
		{name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + env.admin.ID, token: env.adminToken, wantCode: http.StatusForbidden},
		{name: "admin deletes", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: env.adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodGet, path: "/v1/users/" + other.ID, token: env.adminToken, wantCode: http.StatusNotFound},
	})

	rec := env.do(http.MethodPut, "/v1/users/"+env.teacher.ID, env.token, []byte(`{"name":"田中 太郎"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	unmarshal(t, rec, &updated)
	assert.Equal(t, "田中 太郎", updated.Name)
	assert.Equal(t, "tanaka", updated.Username)

	rec = env.do(http.MethodGet, "/v1/users?search=school.jp&ordering=username", env.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []user.User
	unmarshal(t, rec, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "tanaka", users[1].Username)
}
