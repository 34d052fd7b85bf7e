package dummydb

import (
	"sync"

	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/meeting"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
)

type (
	DB struct {
		user         *userTable
		semester     *semesterTable
		enrollment   *enrollmentTable
		project      *projectTable
		meeting      *meetingTable
		smallGroup   *smallGroupTable
		statusUpdate *statusUpdateTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	semesterTable struct {
		sync.RWMutex
		table map[string]*semester.Semester
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment // keyed by semesterID|userID
	}

	projectTable struct {
		sync.RWMutex
		table         map[string]*project.Project
		tags          map[string][]string              // projectID -> tags
		repos         map[string][]project.RepoLink    // projectID -> repositories
		pitches       map[string]*project.Pitch        // semesterID|projectID
		proposals     map[string]*project.Proposal     // semesterID|projectID
		presentations map[string]*project.Presentation // semesterID|projectID
	}

	meetingTable struct {
		sync.RWMutex
		table       map[string]*meeting.Meeting
		attendances map[string]*meeting.MeetingAttendance // meetingID|userID
	}

	smallGroupTable struct {
		sync.RWMutex
		table    map[string]*smallgroup.SmallGroup
		projects map[string][]string // groupID -> projectIDs
		mentors  map[string][]string // groupID -> userIDs
	}

	statusUpdateTable struct {
		sync.RWMutex
		table       map[string]*statusupdate.StatusUpdate
		submissions map[string]*statusupdate.Submission // statusUpdateID|userID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		semester:   &semesterTable{table: make(map[string]*semester.Semester)},
		enrollment: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		project: &projectTable{
			table:         make(map[string]*project.Project),
			tags:          make(map[string][]string),
			repos:         make(map[string][]project.RepoLink),
			pitches:       make(map[string]*project.Pitch),
			proposals:     make(map[string]*project.Proposal),
			presentations: make(map[string]*project.Presentation),
		},
		meeting: &meetingTable{
			table:       make(map[string]*meeting.Meeting),
			attendances: make(map[string]*meeting.MeetingAttendance),
		},
		smallGroup: &smallGroupTable{
			table:    make(map[string]*smallgroup.SmallGroup),
			projects: make(map[string][]string),
			mentors:  make(map[string][]string),
		},
		statusUpdate: &statusUpdateTable{
			table:       make(map[string]*statusupdate.StatusUpdate),
			submissions: make(map[string]*statusupdate.Submission),
		},
	}
	return db, nil
}

func key(parts ...string) string {
	k := parts[0]
	for _, p := range parts[1:] {
		k += "|" + p
	}
	return k
}
