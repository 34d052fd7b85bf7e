package echoapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/user"
)

type dashboardApi struct {
	semSvc  *semester.Service
	usrSvc  *user.Service
	enrSvc  *enrollment.Service
	projSvc *project.Service
	mtgSvc  *meeting.Service
	cache   core.Cache
}

func registerDashboardAPI(g *echo.Group, _ echo.MiddlewareFunc, opts *Options) {
	api := dashboardApi{
		semSvc:  opts.SemesterSvc,
		usrSvc:  opts.UserSvc,
		enrSvc:  opts.EnrollmentSvc,
		projSvc: opts.ProjectSvc,
		mtgSvc:  opts.MeetingSvc,
		cache:   opts.Cache,
	}

	// public; authenticated callers get the richer payload
	g.GET("/dashboard", api.retrieve)
}

type (
	DashboardCounts struct {
		Enrollments int `json:"enrollments"`
		Projects    int `json:"projects"`
	}

	// DashboardChecks are the portal's eligibility checks for the logged-in user.
	DashboardChecks struct {
		IsRPI            bool `json:"is_rpi"`
		CanEnroll        bool `json:"can_enroll"`
		CanCreateProject bool `json:"can_create_project"`
	}

	DashboardResponse struct {
		Semester       semester.Semester `json:"semester"`
		NextMeeting    *meeting.Meeting  `json:"next_meeting"`
		OngoingMeeting *meeting.Meeting  `json:"ongoing_meeting"`

		// splash stats, anonymous callers only
		Counts               *DashboardCounts        `json:"counts,omitempty"`
		ActiveSemesterAdmins []enrollment.Enrollment `json:"active_semester_admins,omitempty"`

		// authenticated callers only
		Now                    *time.Time              `json:"now,omitempty"`
		Checks                 *DashboardChecks        `json:"checks,omitempty"`
		Enrollment             *enrollment.Enrollment  `json:"enrollment,omitempty"`
		ProjectTeamEnrollments []enrollment.Enrollment `json:"project_team_enrollments,omitempty"`
	}
)

// retrieve renders either the splash stats or the user dashboard.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}

	resp := DashboardResponse{Semester: sem}
	if next, err := api.mtgSvc.GetNext(ctx.Request().Context()); err == nil {
		resp.NextMeeting = &next
	} else if errors.Cause(err) != meeting.ErrNotFound {
		return errors.Wrap(err, "getting next meeting")
	}

	if claims, err := parseRequestClaims(ctx); err == nil {
		return api.dashboard(ctx, sem, claims, resp)
	}
	return api.splash(ctx, sem, resp)
}

// splash fills the anonymous landing stats. The counts are expensive and
// slightly stale data is fine, so they are cached.
func (api *dashboardApi) splash(ctx echo.Context, sem semester.Semester, resp DashboardResponse) error {
	counts, err := api.cache.GetOrSet("dashboard_counts_"+sem.ID, func() (interface{}, error) {
		enrs, err := api.enrSvc.Count(ctx.Request().Context(), sem.ID)
		if err != nil {
			return nil, errors.Wrap(err, "counting enrollments")
		}
		projs, err := api.enrSvc.CountProjects(ctx.Request().Context(), sem.ID)
		if err != nil {
			return nil, errors.Wrap(err, "counting projects")
		}
		return DashboardCounts{Enrollments: enrs, Projects: projs}, nil
	})
	if err != nil {
		return err
	}
	c := counts.(DashboardCounts)
	resp.Counts = &c

	admins, err := api.cache.GetOrSet("active_semester_admins_"+sem.ID, func() (interface{}, error) {
		return api.enrSvc.SemesterAdmins(ctx.Request().Context(), sem.ID)
	})
	if err != nil {
		return errors.Wrap(err, "querying semester admins")
	}
	resp.ActiveSemesterAdmins = admins.([]enrollment.Enrollment)

	return ctx.JSON(http.StatusOK, resp)
}

// dashboard fills the logged-in user's view: their enrollment and project
// team for the semester, plus the eligibility checks the frontend renders.
func (api *dashboardApi) dashboard(ctx echo.Context, sem semester.Semester, claims Claims, resp DashboardResponse) error {
	usr, err := getContextUser(ctx, api.usrSvc, claims)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	now := time.Now().UTC()
	resp.Now = &now
	if ongoing, err := api.mtgSvc.GetOngoing(ctx.Request().Context()); err == nil {
		resp.OngoingMeeting = &ongoing
	} else if errors.Cause(err) != meeting.ErrNotFound {
		return errors.Wrap(err, "getting ongoing meeting")
	}

	checks := DashboardChecks{
		IsRPI:            usr.IsRPI(),
		CanEnroll:        usr.IsApproved && sem.IsActive(now),
		CanCreateProject: api.projSvc.CanCreateProject(ctx.Request().Context(), usr, sem) == nil,
	}

	if enr, err := api.enrSvc.Get(ctx.Request().Context(), sem.ID, usr.ID); err == nil {
		resp.Enrollment = &enr
		checks.CanEnroll = false
		if enr.ProjectID.Valid {
			team, err := api.enrSvc.Query(ctx.Request().Context(),
				&enrollment.QueryFilter{SemesterID: sem.ID, ProjectID: enr.ProjectID.String})
			if err != nil {
				return errors.Wrap(err, "querying project team")
			}
			sortTeamEnrollments(team)
			resp.ProjectTeamEnrollments = team
		}
	} else if errors.Cause(err) != enrollment.ErrNotFound {
		return errors.Wrap(err, "getting enrollment")
	}
	resp.Checks = &checks

	return ctx.JSON(http.StatusOK, resp)
}

// sortTeamEnrollments orders a project team for display: leads first, then by
// credits, then by the member's name.
func sortTeamEnrollments(team []enrollment.Enrollment) {
	sort.SliceStable(team, func(i, j int) bool {
		a, b := team[i], team[j]
		if a.IsProjectLead != b.IsProjectLead {
			return a.IsProjectLead
		}
		if a.Credits != b.Credits {
			return a.Credits > b.Credits
		}
		if a.User != nil && b.User != nil && a.User.FirstName != b.User.FirstName {
			return a.User.FirstName < b.User.FirstName
		}
		return a.UserID < b.UserID
	})
}
