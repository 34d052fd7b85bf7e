package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/meeting"
)

type meetingRepository struct {
	db *sqlx.DB
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *sqlx.DB) *meetingRepository {
	return &meetingRepository{db: db}
}

func (repo meetingRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return meeting.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo meetingRepository) CreateMeeting(ctx context.Context, mtg meeting.Meeting) (meeting.Meeting, error) {
	mtg.ID = uuid.New().String()
	const q = `
		INSERT INTO meeting (
			id, semester_id, name, host_id, type, is_published, starts_at, ends_at, location,
			description_markdown, presentation_url, recording_url, discord_event_id, created_at, updated_at
		) VALUES (
			:id, :semester_id, :name, :host_id, :type, :is_published, :starts_at, :ends_at, :location,
			:description_markdown, :presentation_url, :recording_url, :discord_event_id, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, mtg); err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	return mtg, nil
}

func (repo meetingRepository) GetMeeting(ctx context.Context, id string) (meeting.Meeting, error) {
	var mtg meeting.Meeting
	if err := repo.db.GetContext(ctx, &mtg, `SELECT * FROM meeting WHERE id = $1`, id); err != nil {
		return meeting.Meeting{}, repo.trapNoRowsErr(err, "getting meeting")
	}
	return mtg, nil
}

func (repo meetingRepository) QueryMeetings(ctx context.Context, filter *meeting.QueryFilter) ([]meeting.Meeting, error) {
	q := `SELECT * FROM meeting`
	var (
		where []string
		args  []interface{}
	)
	next := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.SemesterID != "" {
			where = append(where, "semester_id = "+next(filter.SemesterID))
		}
		if filter.Type != "" {
			where = append(where, "type = "+next(filter.Type))
		}
		if filter.PublishedOnly {
			where = append(where, "is_published")
		}
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY starts_at ASC"

	mtgs := make([]meeting.Meeting, 0)
	if err := repo.db.SelectContext(ctx, &mtgs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying meetings")
	}
	return mtgs, nil
}

func (repo meetingRepository) UpdateMeeting(ctx context.Context, mtg meeting.Meeting) (meeting.Meeting, error) {
	const q = `
		UPDATE meeting SET
			name = :name, host_id = :host_id, type = :type, is_published = :is_published,
			starts_at = :starts_at, ends_at = :ends_at, location = :location,
			description_markdown = :description_markdown, presentation_url = :presentation_url,
			recording_url = :recording_url, discord_event_id = :discord_event_id, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, mtg); err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "updating meeting")
	}
	return mtg, nil
}

func (repo meetingRepository) GetNextMeeting(ctx context.Context, from time.Time) (meeting.Meeting, error) {
	const q = `SELECT * FROM meeting WHERE is_published AND ends_at >= $1 ORDER BY starts_at ASC LIMIT 1`
	var mtg meeting.Meeting
	if err := repo.db.GetContext(ctx, &mtg, q, from); err != nil {
		return meeting.Meeting{}, repo.trapNoRowsErr(err, "getting next meeting")
	}
	return mtg, nil
}

func (repo meetingRepository) GetOngoingMeeting(ctx context.Context, now time.Time) (meeting.Meeting, error) {
	const q = `SELECT * FROM meeting WHERE is_published AND starts_at <= $1 AND ends_at >= $1 ORDER BY starts_at DESC LIMIT 1`
	var mtg meeting.Meeting
	if err := repo.db.GetContext(ctx, &mtg, q, now); err != nil {
		return meeting.Meeting{}, repo.trapNoRowsErr(err, "getting ongoing meeting")
	}
	return mtg, nil
}

func (repo meetingRepository) CreateAttendance(ctx context.Context, att meeting.MeetingAttendance) (meeting.MeetingAttendance, error) {
	att.ID = uuid.New().String()
	const q = `
		INSERT INTO meeting_attendance (id, meeting_id, user_id, is_added_by_admin, created_at, updated_at)
		VALUES (:id, :meeting_id, :user_id, :is_added_by_admin, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, att); err != nil {
		return meeting.MeetingAttendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo meetingRepository) GetAttendance(ctx context.Context, meetingID, userID string) (meeting.MeetingAttendance, error) {
	const q = `SELECT * FROM meeting_attendance WHERE meeting_id = $1 AND user_id = $2`
	var att meeting.MeetingAttendance
	if err := repo.db.GetContext(ctx, &att, q, meetingID, userID); err != nil {
		return meeting.MeetingAttendance{}, repo.trapNoRowsErr(err, "getting attendance")
	}
	return att, nil
}

func (repo meetingRepository) QueryAttendances(ctx context.Context, meetingID string) ([]meeting.MeetingAttendance, error) {
	atts := make([]meeting.MeetingAttendance, 0)
	const q = `SELECT * FROM meeting_attendance WHERE meeting_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &atts, q, meetingID); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	return atts, nil
}

func (repo meetingRepository) QueryUserAttendances(ctx context.Context, userID, semesterID string) ([]meeting.MeetingAttendance, error) {
	q := `
		SELECT a.* FROM meeting_attendance a
		JOIN meeting m ON m.id = a.meeting_id
		WHERE a.user_id = $1`
	args := []interface{}{userID}
	if semesterID != "" {
		q += ` AND m.semester_id = $2`
		args = append(args, semesterID)
	}
	q += ` ORDER BY m.starts_at`

	atts := make([]meeting.MeetingAttendance, 0)
	if err := repo.db.SelectContext(ctx, &atts, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying user attendances")
	}
	return atts, nil
}
