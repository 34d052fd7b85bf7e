package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	. "github.com/rcos-io/portal/apps/api/echo"
	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
)

func Test_semesterApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)

	// nothing exists yet
	runTable(t, app, []httpTest{
		{name: "empty query", path: "/v1/semesters", wantData: []byte(`[]`)},
		{name: "no current", path: "/v1/semesters/current", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	sem := createSemester(t, "202209", true)

	newSem := semester.NewSemester{
		ID:        "202301",
		Name:      "Spring 2023",
		StartDate: time.Date(2023, time.January, 9, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	badSem := newSem
	badSem.ID = "202303" // March is not a term start month

	tests := []httpTest{
		{name: "query", path: "/v1/semesters", wantData: marchallList(t, sem)},
		{name: "current", path: "/v1/semesters/current", wantData: marchallObj(t, sem)},
		{name: "retrieve", path: "/v1/semesters/" + sem.ID, wantData: marchallObj(t, sem)},
		{name: "retrieve unknown", path: "/v1/semesters/209905", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "create Auth required", method: http.MethodPost, path: "/v1/semesters",
			body: marchallObj(t, newSem), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create Staff required", method: http.MethodPost, path: "/v1/semesters",
			body: marchallObj(t, newSem), token: getToken(t, member),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "create bad ID", method: http.MethodPost, path: "/v1/semesters",
			body: marchallObj(t, badSem), token: getToken(t, staff),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": "must be in YYYYMM format, e.g. 202209"}),
		},
		{
			name: "create ok", method: http.MethodPost, path: "/v1/semesters",
			body: marchallObj(t, newSem), token: getToken(t, staff), wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var got semester.Semester
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if got.ID != newSem.ID || got.Name != newSem.Name {
					t.Errorf("create = %+v, want %+v", got, newSem)
				}
			},
		},
	}
	runTable(t, app, tests)
}

func Test_meetingApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	other := createUser(t, "Lee", "Park", "lee@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	createSemester(t, "202209", true)

	now := time.Now().UTC()
	published := createMeeting(t, "202209", true, now.Add(24*time.Hour))
	draft := createMeeting(t, "202209", false, now.Add(48*time.Hour))

	// only the published meeting was mirrored to a chat event
	if len(chatMock.Events) != 1 {
		t.Fatalf("chat events = %d, want 1", len(chatMock.Events))
	}

	memberToken := getToken(t, member)
	staffToken := getToken(t, staff)

	listLen := func(want int) func(t *testing.T, rec *httptest.ResponseRecorder) {
		return func(t *testing.T, rec *httptest.ResponseRecorder) {
			var mtgs []meeting.Meeting
			if err := json.Unmarshal(rec.Body.Bytes(), &mtgs); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if len(mtgs) != want {
				t.Errorf("meetings = %d records, want %d", len(mtgs), want)
			}
		}
	}

	tests := []httpTest{
		// drafts are hidden from non-staff
		{name: "query anon", path: "/v1/meetings", extra: listLen(1)},
		{name: "query staff", path: "/v1/meetings", token: staffToken, extra: listLen(2)},
		{name: "retrieve draft anon", path: "/v1/meetings/" + draft.ID, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "retrieve draft staff", path: "/v1/meetings/" + draft.ID, token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp MeetingResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if resp.ID != draft.ID || resp.DisplayName != "Large Group" || resp.Color != "blue" {
					t.Errorf("retrieve = %+v, want the draft with its display fields", resp)
				}
			},
		},
		{
			name: "retrieve published anon", path: "/v1/meetings/" + published.ID,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp MeetingResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if resp.ID != published.ID {
					t.Errorf("ID = %q, want %q", resp.ID, published.ID)
				}
			},
		},
		{name: "next", path: "/v1/meetings/next", wantData: marchallObj(t, published)},
		{name: "ongoing", path: "/v1/meetings/ongoing", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "create Staff required", method: http.MethodPost, path: "/v1/meetings",
			token: memberToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		// attendance
		{
			name: "attend Auth required", method: http.MethodPost, path: "/v1/meetings/" + published.ID + "/attend",
			body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "attend self", method: http.MethodPost, path: "/v1/meetings/" + published.ID + "/attend",
			body: []byte(`{}`), token: memberToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var att meeting.MeetingAttendance
				if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if att.UserID != member.ID || att.IsAddedByAdmin {
					t.Errorf("attend = %+v, want the member's own attendance", att)
				}
			},
		},
		{
			name: "attend twice", method: http.MethodPost, path: "/v1/meetings/" + published.ID + "/attend",
			body: []byte(`{}`), token: memberToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "attendance already recorded for this meeting"}),
		},
		{
			name: "attend for others Staff required", method: http.MethodPost, path: "/v1/meetings/" + published.ID + "/attend",
			body: marchallObj(t, AttendRequest{UserID: other.ID}), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "attend recorded by staff", method: http.MethodPost, path: "/v1/meetings/" + published.ID + "/attend",
			body: marchallObj(t, AttendRequest{UserID: other.ID}), token: staffToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var att meeting.MeetingAttendance
				if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if att.UserID != other.ID || !att.IsAddedByAdmin {
					t.Errorf("attend = %+v, want an admin-recorded attendance", att)
				}
			},
		},
		{
			name: "attendances Staff required", path: "/v1/meetings/" + published.ID + "/attendances",
			token: memberToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "attendances", path: "/v1/meetings/" + published.ID + "/attendances", token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var atts []meeting.MeetingAttendance
				if err := json.Unmarshal(rec.Body.Bytes(), &atts); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if len(atts) != 2 {
					t.Errorf("attendances = %d records, want 2", len(atts))
				}
			},
		},
	}
	runTable(t, app, tests)
}

func Test_dashboardApi(t *testing.T) {
	app := setup(t)
	sem := createSemester(t, "202209", true)

	now := time.Now().UTC()
	next := createMeeting(t, sem.ID, true, now.Add(24*time.Hour))

	lead := createUser(t, "Lee", "Park", "lee@gmail.com", "s3cret", false)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	coord := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	free := createUser(t, "Ola", "Mae", "ola@gmail.com", "s3cret", false)

	enrollments := []enrollment.EnrollUser{
		{SemesterID: sem.ID, UserID: lead.ID, ProjectID: null.StringFrom("project-1"), IsProjectLead: true},
		{SemesterID: sem.ID, UserID: member.ID, ProjectID: null.StringFrom("project-1"), Credits: 4},
		{SemesterID: sem.ID, UserID: coord.ID, IsCoordinator: true},
	}
	for _, eu := range enrollments {
		if _, err := enrSvc.Enroll(context.Background(), eu); err != nil {
			t.Fatalf("Enroll() failed, %v", err)
		}
	}

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) DashboardResponse {
		t.Helper()
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response failed, %v", err)
		}
		return resp
	}

	// anonymous callers get the splash stats
	req, rec := newRequest(http.MethodGet, "/v1/dashboard")
	app.ServeHTTP(rec, req)
	resp := decode(t, rec)
	if resp.Semester.ID != sem.ID {
		t.Errorf("Semester.ID = %q, want %q", resp.Semester.ID, sem.ID)
	}
	if resp.Counts == nil || resp.Counts.Enrollments != 3 || resp.Counts.Projects != 1 {
		t.Errorf("Counts = %+v, want 3 enrollments and 1 project", resp.Counts)
	}
	if len(resp.ActiveSemesterAdmins) != 1 || resp.ActiveSemesterAdmins[0].UserID != coord.ID {
		t.Errorf("ActiveSemesterAdmins = %+v, want the coordinator", resp.ActiveSemesterAdmins)
	}
	if resp.NextMeeting == nil || resp.NextMeeting.ID != next.ID {
		t.Errorf("NextMeeting = %+v, want %q", resp.NextMeeting, next.ID)
	}
	if resp.OngoingMeeting != nil {
		t.Errorf("OngoingMeeting = %+v, want none", resp.OngoingMeeting)
	}
	if resp.Checks != nil || resp.Enrollment != nil {
		t.Errorf("splash = %+v, want no user fields", resp)
	}

	// an enrolled member gets their dashboard
	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, member))
	app.ServeHTTP(rec, req)
	resp = decode(t, rec)
	if resp.Now == nil {
		t.Error("Now = nil, want the current time")
	}
	if resp.Counts != nil {
		t.Errorf("Counts = %+v, want no splash stats", resp.Counts)
	}
	if resp.Checks == nil || resp.Checks.IsRPI || resp.Checks.CanEnroll || resp.Checks.CanCreateProject {
		t.Errorf("Checks = %+v, want all checks failing for an enrolled external member", resp.Checks)
	}
	if resp.Enrollment == nil || resp.Enrollment.UserID != member.ID {
		t.Errorf("Enrollment = %+v, want the member's", resp.Enrollment)
	}
	if len(resp.ProjectTeamEnrollments) != 2 || !resp.ProjectTeamEnrollments[0].IsProjectLead {
		t.Errorf("ProjectTeamEnrollments = %+v, want the team with the lead first", resp.ProjectTeamEnrollments)
	}

	// an approved user without an enrollment may enroll and propose
	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, free))
	app.ServeHTTP(rec, req)
	resp = decode(t, rec)
	if resp.Checks == nil || !resp.Checks.CanEnroll || !resp.Checks.CanCreateProject {
		t.Errorf("Checks = %+v, want can-enroll and can-create-project passing", resp.Checks)
	}
	if resp.Enrollment != nil || resp.ProjectTeamEnrollments != nil {
		t.Errorf("dashboard = %+v, want no enrollment fields", resp)
	}
}

func Test_enrollmentApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	other := createUser(t, "Lee", "Park", "lee@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	sem := createSemester(t, "202209", true)

	memberToken := getToken(t, member)
	staffToken := getToken(t, staff)

	enroll := enrollment.EnrollUser{SemesterID: sem.ID, UserID: member.ID, Credits: 4}

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/enrollments",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "enroll Staff required", method: http.MethodPost, path: "/v1/enrollments",
			body: marchallObj(t, enroll), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "enroll", method: http.MethodPost, path: "/v1/enrollments",
			body: marchallObj(t, enroll), token: staffToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var enr enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if enr.ID == "" || enr.UserID != member.ID || enr.Credits != 4 {
					t.Errorf("enroll = %+v, want the member enrolled for 4 credits", enr)
				}
			},
		},
		{
			name: "query", path: "/v1/enrollments?semester=" + sem.ID, token: memberToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var enrs []enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enrs); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if len(enrs) != 1 {
					t.Errorf("enrollments = %d records, want 1", len(enrs))
				}
			},
		},
		// final grades are private
		{
			name: "retrieve others forbidden", path: "/v1/enrollments/" + sem.ID + "/" + member.ID,
			token: getToken(t, other), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "retrieve own", path: "/v1/enrollments/" + sem.ID + "/" + member.ID, token: memberToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var enr enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if enr.UserID != member.ID {
					t.Errorf("UserID = %q, want %q", enr.UserID, member.ID)
				}
			},
		},
		{
			name: "grade Staff required", method: http.MethodPut,
			path: "/v1/enrollments/" + sem.ID + "/" + member.ID + "/grade",
			body: marchallObj(t, FinalGradeRequest{FinalGrade: 3.67}), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "grade", method: http.MethodPut,
			path: "/v1/enrollments/" + sem.ID + "/" + member.ID + "/grade",
			body: marchallObj(t, FinalGradeRequest{FinalGrade: 3.67}), token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var enr enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if !enr.FinalGrade.Valid || enr.FinalGrade.Float64 != 3.67 {
					t.Errorf("FinalGrade = %+v, want 3.67", enr.FinalGrade)
				}
			},
		},
		{
			name: "grade unknown enrollment", method: http.MethodPut,
			path: "/v1/enrollments/" + sem.ID + "/nope/grade",
			body: marchallObj(t, FinalGradeRequest{FinalGrade: 4}), token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	runTable(t, app, tests)
}

func Test_statusUpdateApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	createSemester(t, "202209", true)

	memberToken := getToken(t, member)
	staffToken := getToken(t, staff)

	now := time.Now().UTC()
	window, err := suSvc.Create(context.Background(), statusupdate.NewStatusUpdate{
		SemesterID: "202209",
		Name:       "Week 3",
		OpensAt:    now.Add(-time.Hour),
		ClosesAt:   now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("creating status update failed, %v", err)
	}

	// approval gates submissions
	pending := user.User{Email: "new@gmail.com", Role: user.RoleExternal}
	pending, err = usrRepo.CreateUser(context.Background(), pending)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}

	submission := statusupdate.NewSubmission{
		PreviousWeek: "set up the repo",
		NextWeek:     "write the parser",
	}

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/status-updates",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create Staff required", method: http.MethodPost, path: "/v1/status-updates",
			token: memberToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "retrieve", path: "/v1/status-updates/" + window.ID, token: memberToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp StatusUpdateResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if resp.ID != window.ID || resp.DisplayName != window.DisplayName() {
					t.Errorf("retrieve = %+v, want the window with its display name", resp)
				}
			},
		},
		{
			name: "submit Approval required", method: http.MethodPost,
			path: "/v1/status-updates/" + window.ID + "/submit",
			body: marchallObj(t, submission), token: getToken(t, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "submit", method: http.MethodPost, path: "/v1/status-updates/" + window.ID + "/submit",
			body: marchallObj(t, submission), token: memberToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var sub statusupdate.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if sub.UserID != member.ID || sub.PreviousWeek != submission.PreviousWeek {
					t.Errorf("submit = %+v, want the member's report", sub)
				}
			},
		},
		{
			name: "submit twice", method: http.MethodPost, path: "/v1/status-updates/" + window.ID + "/submit",
			body: marchallObj(t, submission), token: memberToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "you already submitted for this status update"}),
		},
		{
			name: "mine", path: "/v1/status-updates/mine?semester=202209", token: memberToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var subs []statusupdate.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if len(subs) != 1 {
					t.Errorf("submissions = %d records, want 1", len(subs))
				}
			},
		},
		{
			name: "submissions Staff required", path: "/v1/status-updates/" + window.ID + "/submissions",
			token: memberToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runTable(t, app, tests)

	subs, err := suSvc.UserSubmissions(context.Background(), member.ID, "202209")
	if err != nil || len(subs) != 1 {
		t.Fatalf("UserSubmissions() = %v, %v; want the member's submission", subs, err)
	}

	req, rec := newAuthRequest(http.MethodPut, "/v1/status-updates/submissions/"+subs[0].ID+"/grade",
		staffToken, marchallObj(t, statusupdate.GradeSubmission{Grade: 9, GraderComments: "nice"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var sub statusupdate.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("unmarshalling response failed, %v", err)
	}
	if !sub.Grade.Valid || sub.Grade.Float64 != 9 || !sub.GraderID.Valid {
		t.Errorf("grade = %+v, want a graded submission", sub)
	}
}

func Test_discordApi_link(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	token := getToken(t, usr)

	req, rec := newRequest(http.MethodGet, "/v1/discord/link")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %v, want %v", rec.Code, http.StatusUnauthorized)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/discord/link", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusFound, rec.Body.String())
	}
	// the caller's token rides along as the OAuth2 state
	if got, want := rec.Header().Get("Location"), "https://discord.test/oauth?state="+token; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func Test_discordApi_callback(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	token := getToken(t, usr)

	runTable(t, app, []httpTest{
		{
			name: "code required", path: "/v1/discord/callback?state=" + token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "this field is required"}),
		},
		{
			name: "bad state", path: "/v1/discord/callback?code=abc&state=nope",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
	})

	// the chat platform rejects the exchange
	linker.err = errors.New("discord is down")
	req, rec := newRequest(http.MethodGet, "/v1/discord/callback?code=abc&state="+token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("code = %v, want %v; body %s", rec.Code, http.StatusBadGateway, rec.Body.String())
	}

	linker.err = nil
	linker.chatUsr = core.ChatUser{ID: "123456", Username: "remy"}
	req, rec = newRequest(http.MethodGet, "/v1/discord/callback?code=abc&state="+token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusFound, rec.Body.String())
	}
	if got, want := rec.Header().Get("Location"), core.Conf.FrontendBaseURL+"/profile"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	usr, err := usrSvc.GetByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed, %v", err)
	}
	if usr.DiscordUserID != "123456" {
		t.Errorf("DiscordUserID = %q, want %q", usr.DiscordUserID, "123456")
	}
}
