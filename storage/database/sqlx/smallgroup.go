package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/user"
)

type smallGroupRepository struct {
	db *sqlx.DB
}

var _ smallgroup.Repository = (*smallGroupRepository)(nil) // interface compliance check

func NewSmallGroupRepository(db *sqlx.DB) *smallGroupRepository {
	return &smallGroupRepository{db: db}
}

func (repo smallGroupRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return smallgroup.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo smallGroupRepository) CreateSmallGroup(ctx context.Context, sg smallgroup.SmallGroup) (smallgroup.SmallGroup, error) {
	sg.ID = uuid.New().String()
	const q = `
		INSERT INTO small_group (id, semester_id, name, location, discord_category_id, discord_role_id, created_at, updated_at)
		VALUES (:id, :semester_id, :name, :location, :discord_category_id, :discord_role_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, sg); err != nil {
		return smallgroup.SmallGroup{}, errors.Wrap(err, "inserting small group")
	}
	return sg, nil
}

func (repo smallGroupRepository) GetSmallGroup(ctx context.Context, id string) (smallgroup.SmallGroup, error) {
	var sg smallgroup.SmallGroup
	if err := repo.db.GetContext(ctx, &sg, `SELECT * FROM small_group WHERE id = $1`, id); err != nil {
		return smallgroup.SmallGroup{}, repo.trapNoRowsErr(err, "getting small group")
	}
	if err := repo.loadLinks(ctx, &sg); err != nil {
		return smallgroup.SmallGroup{}, err
	}
	return sg, nil
}

func (repo smallGroupRepository) QuerySmallGroups(ctx context.Context, semesterID string) ([]smallgroup.SmallGroup, error) {
	q := `SELECT * FROM small_group`
	args := make([]interface{}, 0, 1)
	if semesterID != "" {
		q += ` WHERE semester_id = $1`
		args = append(args, semesterID)
	}
	q += ` ORDER BY semester_id, name, location`

	groups := make([]smallgroup.SmallGroup, 0)
	if err := repo.db.SelectContext(ctx, &groups, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying small groups")
	}
	for i := range groups {
		if err := repo.loadLinks(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (repo smallGroupRepository) UpdateSmallGroup(ctx context.Context, sg smallgroup.SmallGroup) (smallgroup.SmallGroup, error) {
	const q = `
		UPDATE small_group SET
			name = :name, location = :location, discord_category_id = :discord_category_id,
			discord_role_id = :discord_role_id, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, sg); err != nil {
		return smallgroup.SmallGroup{}, errors.Wrap(err, "updating small group")
	}
	return sg, nil
}

func (repo smallGroupRepository) GetSmallGroupForProject(ctx context.Context, semesterID, projectID string) (smallgroup.SmallGroup, error) {
	const q = `
		SELECT sg.* FROM small_group sg
		JOIN small_group_project sgp ON sgp.small_group_id = sg.id
		WHERE sg.semester_id = $1 AND sgp.project_id = $2`
	var sg smallgroup.SmallGroup
	if err := repo.db.GetContext(ctx, &sg, q, semesterID, projectID); err != nil {
		return smallgroup.SmallGroup{}, repo.trapNoRowsErr(err, "getting small group for project")
	}
	if err := repo.loadLinks(ctx, &sg); err != nil {
		return smallgroup.SmallGroup{}, err
	}
	return sg, nil
}

func (repo smallGroupRepository) loadLinks(ctx context.Context, sg *smallgroup.SmallGroup) error {
	projs := make([]project.Project, 0)
	const projQ = `
		SELECT p.* FROM project p
		JOIN small_group_project sgp ON sgp.project_id = p.id
		WHERE sgp.small_group_id = $1
		ORDER BY p.name`
	if err := repo.db.SelectContext(ctx, &projs, projQ, sg.ID); err != nil {
		return errors.Wrap(err, "loading small group projects")
	}
	sg.Projects = projs

	mentors := make([]user.User, 0)
	const mentorQ = `
		SELECT u.* FROM "user" u
		JOIN small_group_mentor sgm ON sgm.user_id = u.id
		WHERE sgm.small_group_id = $1
		ORDER BY u.first_name`
	if err := repo.db.SelectContext(ctx, &mentors, mentorQ, sg.ID); err != nil {
		return errors.Wrap(err, "loading small group mentors")
	}
	sg.Mentors = mentors
	return nil
}

func (repo smallGroupRepository) AddSmallGroupProject(ctx context.Context, groupID, projectID string) error {
	const q = `INSERT INTO small_group_project (small_group_id, project_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, q, groupID, projectID)
	return errors.Wrap(err, "adding small group project")
}

func (repo smallGroupRepository) RemoveSmallGroupProject(ctx context.Context, groupID, projectID string) error {
	const q = `DELETE FROM small_group_project WHERE small_group_id = $1 AND project_id = $2`
	_, err := repo.db.ExecContext(ctx, q, groupID, projectID)
	return errors.Wrap(err, "removing small group project")
}

func (repo smallGroupRepository) AddSmallGroupMentor(ctx context.Context, groupID, userID string) error {
	const q = `INSERT INTO small_group_mentor (small_group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, q, groupID, userID)
	return errors.Wrap(err, "adding small group mentor")
}

func (repo smallGroupRepository) RemoveSmallGroupMentor(ctx context.Context, groupID, userID string) error {
	const q = `DELETE FROM small_group_mentor WHERE small_group_id = $1 AND user_id = $2`
	_, err := repo.db.ExecContext(ctx, q, groupID, userID)
	return errors.Wrap(err, "removing small group mentor")
}
