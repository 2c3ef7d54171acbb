package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/gakuseki/gakuseki/apps/api/echo"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/evaluation"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/subject"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/core/user"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
	"github.com/gakuseki/gakuseki/tests"
)

const testPwd = "Kz8#rmQp2v"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app        Server
	auth       *Auth
	userSvc    *user.Service
	studentSvc *student.Service
	subjectSvc *subject.Service
	teacherSvc *teacher.Service
	attSvc     *attendance.Service
	evalSvc    *evaluation.Service

	admin      user.User
	teacher    user.User
	adminToken string
	token      string // teacher
}

func setup(t *testing.T) *testEnv {
	conf := testutil.Config()
	validate, translator := testutil.Validator()
	store := inmemdb.Open()

	env := &testEnv{
		userSvc:    user.NewService(store),
		subjectSvc: subject.NewService(store),
		teacherSvc: teacher.NewService(store),
		attSvc:     attendance.NewService(store),
		auth:       NewAuth(conf),
	}
	env.studentSvc = student.NewService(store, env.teacherSvc, env.attSvc)
	env.evalSvc = evaluation.NewService(store, env.subjectSvc, env.studentSvc, env.attSvc)

	env.app = NewServer("", nil, &Deps{
		Conf:          conf,
		Logger:        testutil.Logger(conf),
		Validate:      validate,
		Translator:    translator,
		UserSvc:       env.userSvc,
		StudentSvc:    env.studentSvc,
		TeacherSvc:    env.teacherSvc,
		SubjectSvc:    env.subjectSvc,
		AttendanceSvc: env.attSvc,
		EvaluationSvc: env.evalSvc,
	})

	env.admin = testutil.CreateUser(t, env.userSvc, "管理者", "admin", "admin@school.jp", testPwd, []string{user.RoleAdmin}, true)
	env.teacher = testutil.CreateUser(t, env.userSvc, "田中", "tanaka", "tanaka@school.jp", testPwd, []string{user.RoleTeacher}, true)
	env.adminToken = getToken(t, env.auth, env.admin)
	env.token = getToken(t, env.auth, env.teacher)
	return env
}

func (env *testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, auth *Auth, usr user.User) string {
	token, err := auth.GenerateToken(auth.UserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
