package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rcos-io/portal/core/meeting"
)

type meetingRepository struct {
	db *meetingTable
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *DB) *meetingRepository {
	return &meetingRepository{db: db.meeting}
}

func (repo *meetingRepository) query() []meeting.Meeting {
	mtgs := make([]meeting.Meeting, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		mtgs = append(mtgs, *m)
	}
	sort.Slice(mtgs, func(i, j int) bool { return mtgs[i].StartsAt.Before(mtgs[j].StartsAt) })
	return mtgs
}

func (repo *meetingRepository) CreateMeeting(ctx context.Context, mtg meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mtg.ID = uuid.New().String()
	repo.db.table[mtg.ID] = &mtg
	return mtg, nil
}

func (repo *meetingRepository) GetMeeting(ctx context.Context, id string) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mtg, ok := repo.db.table[id]; ok {
		return *mtg, nil
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) QueryMeetings(ctx context.Context, filter *meeting.QueryFilter) ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mtgs := make([]meeting.Meeting, 0)
	for _, mtg := range repo.query() {
		if filter != nil {
			if filter.SemesterID != "" && mtg.SemesterID != filter.SemesterID {
				continue
			}
			if filter.Type != "" && mtg.Type != filter.Type {
				continue
			}
			if filter.PublishedOnly && !mtg.IsPublished {
				continue
			}
		}
		mtgs = append(mtgs, mtg)
	}
	return mtgs, nil
}

func (repo *meetingRepository) UpdateMeeting(ctx context.Context, mtg meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mtg.ID]; !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	stored := mtg
	repo.db.table[mtg.ID] = &stored
	return mtg, nil
}

func (repo *meetingRepository) GetNextMeeting(ctx context.Context, from time.Time) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mtg := range repo.query() {
		if mtg.IsPublished && !mtg.EndsAt.Before(from) {
			return mtg, nil
		}
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) GetOngoingMeeting(ctx context.Context, now time.Time) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mtg := range repo.query() {
		if mtg.IsPublished && !mtg.StartsAt.After(now) && !mtg.EndsAt.Before(now) {
			return mtg, nil
		}
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) CreateAttendance(ctx context.Context, att meeting.MeetingAttendance) (meeting.MeetingAttendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	att.ID = uuid.New().String()
	repo.db.attendances[key(att.MeetingID, att.UserID)] = &att
	return att, nil
}

func (repo *meetingRepository) GetAttendance(ctx context.Context, meetingID, userID string) (meeting.MeetingAttendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if att, ok := repo.db.attendances[key(meetingID, userID)]; ok {
		return *att, nil
	}
	return meeting.MeetingAttendance{}, meeting.ErrNotFound
}

func (repo *meetingRepository) QueryAttendances(ctx context.Context, meetingID string) ([]meeting.MeetingAttendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	atts := make([]meeting.MeetingAttendance, 0)
	for _, att := range repo.db.attendances {
		if att.MeetingID == meetingID {
			atts = append(atts, *att)
		}
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].CreatedAt.Before(atts[j].CreatedAt) })
	return atts, nil
}

func (repo *meetingRepository) QueryUserAttendances(ctx context.Context, userID, semesterID string) ([]meeting.MeetingAttendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	atts := make([]meeting.MeetingAttendance, 0)
	for _, att := range repo.db.attendances {
		if att.UserID != userID {
			continue
		}
		if semesterID != "" {
			mtg, ok := repo.db.table[att.MeetingID]
			if !ok || mtg.SemesterID != semesterID {
				continue
			}
		}
		atts = append(atts, *att)
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].CreatedAt.Before(atts[j].CreatedAt) })
	return atts, nil
}
