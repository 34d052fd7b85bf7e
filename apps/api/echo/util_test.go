package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	. "github.com/rcos-io/portal/apps/api/echo"
	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
	discordsvc "github.com/rcos-io/portal/services/discord"
	emailsvc "github.com/rcos-io/portal/services/email"
	githubsvc "github.com/rcos-io/portal/services/github"
	"github.com/rcos-io/portal/storage/database/dummy"

	_ "github.com/rcos-io/portal/fs" // load email templates
)

var (
	usrRepo user.Repository
	usrSvc  *user.Service
	semSvc  *semester.Service
	enrSvc  *enrollment.Service
	mtgSvc  *meeting.Service
	suSvc   *statusupdate.Service

	chatMock *discordsvc.Mock
	linker   *linkerMock

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

// linkerMock stands in for the chat platform's OAuth2 flow.
type linkerMock struct {
	chatUsr core.ChatUser
	err     error
}

func (m *linkerMock) AuthCodeURL(state string) string {
	return "https://discord.test/oauth?state=" + state
}

func (m *linkerMock) ExchangeCode(ctx context.Context, code string) (core.ChatUser, error) {
	return m.chatUsr, m.err
}

func setup(t *testing.T) Server {
	t.Helper()

	// keep error responses JSON-encoded
	core.Conf.Debug = false

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	enrRepo := dummydb.NewEnrollmentRepository(db)
	projRepo := dummydb.NewProjectRepository(db)

	// set up services
	chatMock = discordsvc.NewMock()
	linker = &linkerMock{}
	ghMock := &githubsvc.Mock{Repos: make(map[string]project.RepoInfo)}
	logger := core.NopLogger{}
	cache := core.NewCache(time.Minute)

	usrSvc = user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(), logger)
	semSvc = semester.NewService(dummydb.NewSemesterRepository(db), cache)
	enrSvc = enrollment.NewService(enrRepo)
	projSvc := project.NewService(projRepo, enrRepo, chatMock, ghMock, logger)
	mtgSvc = meeting.NewService(dummydb.NewMeetingRepository(db), chatMock, logger)
	sgSvc := smallgroup.NewService(dummydb.NewSmallGroupRepository(db), chatMock, logger)
	suSvc = statusupdate.NewService(dummydb.NewStatusUpdateRepository(db))

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs:  true,
			UserSvc:         usrSvc,
			SemesterSvc:     semSvc,
			EnrollmentSvc:   enrSvc,
			ProjectSvc:      projSvc,
			MeetingSvc:      mtgSvc,
			SmallGroupSvc:   sgSvc,
			StatusUpdateSvc: suSvc,
			AccountLinker:   linker,
			Cache:           cache,
			Logger:          logger,
		},
	)
}

// Fixtures

func createUser(t *testing.T, firstName, lastName, email, pwd string, staff bool) user.User {
	t.Helper()
	usr := user.User{
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       user.RoleExternal,
		IsApproved: true,
		IsStaff:    staff,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

func createSemester(t *testing.T, id string, accepting bool) semester.Semester {
	t.Helper()
	now := time.Now().UTC()
	sem, err := semSvc.Create(context.Background(), semester.NewSemester{
		ID:                     id,
		Name:                   "Semester " + id,
		IsAcceptingNewProjects: accepting,
		StartDate:              now.Add(-30 * 24 * time.Hour),
		EndDate:                now.Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("semSvc.Create() failed, %v", err)
	}
	return sem
}

func createMeeting(t *testing.T, semID string, published bool, start time.Time) meeting.Meeting {
	t.Helper()
	mtg, err := mtgSvc.Create(context.Background(), meeting.NewMeeting{
		SemesterID:  semID,
		Type:        meeting.TypeLargeGroup,
		IsPublished: published,
		StartsAt:    start,
		EndsAt:      start.Add(2 * time.Hour),
		Location:    "DCC 308",
	})
	if err != nil {
		t.Fatalf("mtgSvc.Create() failed, %v", err)
	}
	return mtg
}

// Helpers

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
	extra    func(t *testing.T, rec *httptest.ResponseRecorder)
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

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
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
	if tt.wantData != nil {
		ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
	if tt.extra != nil {
		tt.extra(t, rec)
	}
}

func runTable(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			if tt.wantCode == 0 {
				tt.wantCode = http.StatusOK
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
