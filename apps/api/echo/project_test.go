package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/rcos-io/portal/apps/api/echo"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/smallgroup"
)

func Test_projectApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	other := createUser(t, "Lee", "Park", "lee@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	createSemester(t, "202209", true)

	memberToken := getToken(t, member)
	otherToken := getToken(t, other)
	staffToken := getToken(t, staff)

	newProj := project.NewProject{Name: "Observatory", Summary: "Telescope data pipeline"}

	runTable(t, app, []httpTest{
		{name: "empty query", path: "/v1/projects", wantData: []byte(`[]`)},
		{name: "retrieve unknown", path: "/v1/projects/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "create Auth required", method: http.MethodPost, path: "/v1/projects",
			body: marchallObj(t, newProj), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/projects",
			body: marchallObj(t, newProj), token: memberToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var proj project.Project
				if err := json.Unmarshal(rec.Body.Bytes(), &proj); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if proj.Slug != "observatory" || !proj.OwnerID.Valid || proj.OwnerID.String != member.ID {
					t.Errorf("create = %+v, want the member's project with slug %q", proj, "observatory")
				}
				if proj.IsApproved {
					t.Errorf("IsApproved = true, want new projects to await approval")
				}
			},
		},
		{
			name: "create duplicate name", method: http.MethodPost, path: "/v1/projects",
			body: marchallObj(t, newProj), token: otherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "a project with this name already exists"}),
		},
		// the owner already leads a project this semester
		{
			name: "create second project", method: http.MethodPost, path: "/v1/projects",
			body:  marchallObj(t, project.NewProject{Name: "Seconds", Summary: "Another one"}),
			token: memberToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "you are already on a project this semester"}),
		},
		{name: "retrieve", path: "/v1/projects/observatory", extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var proj project.Project
			if err := json.Unmarshal(rec.Body.Bytes(), &proj); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if proj.Name != newProj.Name {
				t.Errorf("Name = %q, want %q", proj.Name, newProj.Name)
			}
		}},
		{name: "repositories", path: "/v1/projects/observatory/repositories", wantData: []byte(`[]`)},
		{
			name: "update by stranger", method: http.MethodPut, path: "/v1/projects/observatory",
			body: []byte(`{"summary": "mine now"}`), token: otherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "update by owner", method: http.MethodPut, path: "/v1/projects/observatory",
			body: []byte(`{"summary": "Telescope scheduling and data pipeline"}`), token: memberToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var proj project.Project
				if err := json.Unmarshal(rec.Body.Bytes(), &proj); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if proj.Summary != "Telescope scheduling and data pipeline" {
					t.Errorf("Summary = %q, want the updated summary", proj.Summary)
				}
			},
		},
		{
			name: "approve Staff required", method: http.MethodPost, path: "/v1/projects/observatory/approve",
			token: memberToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "approve", method: http.MethodPost, path: "/v1/projects/observatory/approve", token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var proj project.Project
				if err := json.Unmarshal(rec.Body.Bytes(), &proj); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if !proj.IsApproved {
					t.Errorf("IsApproved = false, want true")
				}
			},
		},
		// the owner got a lead enrollment on create
		{name: "team", path: "/v1/projects/observatory/team", extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var team []enrollment.Enrollment
			if err := json.Unmarshal(rec.Body.Bytes(), &team); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if len(team) != 1 || team[0].UserID != member.ID || !team[0].IsProjectLead {
				t.Errorf("team = %+v, want the owner as lead", team)
			}
		}},
		{
			name: "add to team by stranger", method: http.MethodPost, path: "/v1/projects/observatory/team",
			body: marchallObj(t, TeamMemberRequest{UserID: other.ID}), token: otherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "add to team", method: http.MethodPost, path: "/v1/projects/observatory/team",
			body: marchallObj(t, TeamMemberRequest{UserID: other.ID}), token: memberToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var enr enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if enr.UserID != other.ID || enr.IsProjectLead {
					t.Errorf("add to team = %+v, want a non-lead enrollment for the new member", enr)
				}
			},
		},
		// members may leave on their own
		{
			name: "leave team", method: http.MethodDelete, path: "/v1/projects/observatory/team/" + other.ID,
			token: otherToken, wantCode: http.StatusNoContent,
		},
		// pitches, proposals, presentations
		{
			name: "pitch", method: http.MethodPost, path: "/v1/projects/observatory/pitch",
			body:  marchallObj(t, project.SubmitURL{URL: "https://docs.google.com/presentation/d/pitch123"}),
			token: memberToken, wantCode: http.StatusCreated,
		},
		{
			name: "pitch twice", method: http.MethodPost, path: "/v1/projects/observatory/pitch",
			body:  marchallObj(t, project.SubmitURL{URL: "https://docs.google.com/presentation/d/pitch456"}),
			token: memberToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "a pitch for this project and semester already exists"}),
		},
		{
			name: "grade missing proposal", method: http.MethodPut, path: "/v1/projects/observatory/proposal/grade",
			body: marchallObj(t, project.GradeSubmission{Grade: 8}), token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "proposal", method: http.MethodPost, path: "/v1/projects/observatory/proposal",
			body:  marchallObj(t, project.SubmitURL{URL: "https://docs.google.com/document/d/proposal123"}),
			token: memberToken, wantCode: http.StatusCreated,
		},
		{
			name: "grade proposal Staff required", method: http.MethodPut, path: "/v1/projects/observatory/proposal/grade",
			body: marchallObj(t, project.GradeSubmission{Grade: 8}), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "grade proposal", method: http.MethodPut, path: "/v1/projects/observatory/proposal/grade",
			body:  marchallObj(t, project.GradeSubmission{Grade: 8, GraderComments: "solid plan"}),
			token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var prop project.Proposal
				if err := json.Unmarshal(rec.Body.Bytes(), &prop); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if !prop.Grade.Valid || prop.Grade.Float64 != 8 || !prop.GraderID.Valid {
					t.Errorf("grade = %+v, want a graded proposal", prop)
				}
			},
		},
	})
}

func Test_smallGroupApi(t *testing.T) {
	app := setup(t)
	member := createUser(t, "Remy", "Schurr", "remy@gmail.com", "s3cret", false)
	staff := createUser(t, "Ada", "Young", "ada@rpi.edu", "s3cret", true)
	createSemester(t, "202209", true)

	memberToken := getToken(t, member)
	staffToken := getToken(t, staff)

	newGroup := smallgroup.NewSmallGroup{SemesterID: "202209", Name: "Data Wranglers", Location: "Sage 3303"}
	badGroup := newGroup
	badGroup.SemesterID = "nope"

	var group smallgroup.SmallGroup

	runTable(t, app, []httpTest{
		{name: "empty query", path: "/v1/small-groups", wantData: []byte(`[]`)},
		{name: "retrieve unknown", path: "/v1/small-groups/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "create Auth required", method: http.MethodPost, path: "/v1/small-groups",
			body: marchallObj(t, newGroup), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create Staff required", method: http.MethodPost, path: "/v1/small-groups",
			body: marchallObj(t, newGroup), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "create bad semester", method: http.MethodPost, path: "/v1/small-groups",
			body: marchallObj(t, badGroup), token: staffToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"semester_id": "must be in YYYYMM format, e.g. 202209"}),
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/small-groups",
			body: marchallObj(t, newGroup), token: staffToken, wantCode: http.StatusCreated,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				if err := json.Unmarshal(rec.Body.Bytes(), &group); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if group.ID == "" || group.Name != newGroup.Name {
					t.Errorf("create = %+v, want %+v", group, newGroup)
				}
			},
		},
	})
	if group.ID == "" {
		t.Fatal("small group was not created")
	}

	// a project to link to the group
	req, rec := newAuthRequest(http.MethodPost, "/v1/projects", memberToken,
		marchallObj(t, project.NewProject{Name: "Observatory", Summary: "Telescope data pipeline"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var proj project.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &proj); err != nil {
		t.Fatalf("unmarshalling response failed, %v", err)
	}

	runTable(t, app, []httpTest{
		{name: "query", path: "/v1/small-groups?semester=202209", extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var groups []smallgroup.SmallGroup
			if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if len(groups) != 1 {
				t.Errorf("groups = %d records, want 1", len(groups))
			}
		}},
		{name: "retrieve", path: "/v1/small-groups/" + group.ID, extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var resp SmallGroupResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if resp.ID != group.ID || resp.DisplayName != "Data Wranglers" {
				t.Errorf("retrieve = %+v, want the group with its display name", resp)
			}
		}},
		{
			name: "update Staff required", method: http.MethodPut, path: "/v1/small-groups/" + group.ID,
			body: []byte(`{"location": "Sage 2704"}`), token: memberToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/small-groups/" + group.ID,
			body: []byte(`{"location": "Sage 2704"}`), token: staffToken,
			extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var sg smallgroup.SmallGroup
				if err := json.Unmarshal(rec.Body.Bytes(), &sg); err != nil {
					t.Fatalf("unmarshalling response failed, %v", err)
				}
				if sg.Location != "Sage 2704" {
					t.Errorf("Location = %q, want %q", sg.Location, "Sage 2704")
				}
			},
		},
		{
			name: "add project", method: http.MethodPost, path: "/v1/small-groups/" + group.ID + "/projects",
			body: marchallObj(t, GroupProjectRequest{ProjectID: proj.ID}), token: staffToken, wantCode: http.StatusCreated,
		},
		{name: "retrieve with project", path: "/v1/small-groups/" + group.ID, extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var resp SmallGroupResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if len(resp.Projects) != 1 || resp.Projects[0].ID != proj.ID {
				t.Errorf("Projects = %+v, want the linked project", resp.Projects)
			}
		}},
		{
			name: "remove project", method: http.MethodDelete,
			path:  "/v1/small-groups/" + group.ID + "/projects/" + proj.ID,
			token: staffToken, wantCode: http.StatusNoContent,
		},
		{
			name: "add mentor unknown user", method: http.MethodPost, path: "/v1/small-groups/" + group.ID + "/mentors",
			body: marchallObj(t, TeamMemberRequest{UserID: "nope"}), token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "add mentor", method: http.MethodPost, path: "/v1/small-groups/" + group.ID + "/mentors",
			body: marchallObj(t, TeamMemberRequest{UserID: member.ID}), token: staffToken, wantCode: http.StatusCreated,
		},
		{name: "retrieve with mentor", path: "/v1/small-groups/" + group.ID, extra: func(t *testing.T, rec *httptest.ResponseRecorder) {
			var resp SmallGroupResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling response failed, %v", err)
			}
			if len(resp.Mentors) != 1 || resp.Mentors[0].ID != member.ID {
				t.Errorf("Mentors = %+v, want the member", resp.Mentors)
			}
		}},
		{
			name: "remove mentor", method: http.MethodDelete,
			path:  "/v1/small-groups/" + group.ID + "/mentors/" + member.ID,
			token: staffToken, wantCode: http.StatusNoContent,
		},
	})
}
